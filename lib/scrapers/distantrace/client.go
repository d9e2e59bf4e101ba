package distantrace

import (
	"bytes"
	"context"
	"net/http/cookiejar"
	"net/url"
	"time"

	"distantrace-backend/lib/ratelimit"
	"distantrace-backend/lib/restyutil"
	"distantrace-backend/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
)

const DefaultBaseUrl = "https://distantrace.com"
const DefaultLoginPath = "/lv/konts/login/"
const defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64; rv:131.0) Gecko/20100101 Firefox/131.0"

type Credentials struct {
	Login    string
	Password string
}

type ClientOptions struct {
	BaseUrl   string
	LoginPath string
	UserAgent string
	Timeout   time.Duration
	Limiter   ratelimit.Limiter
}

type Client struct {
	BaseUrl   *url.URL
	Http      *resty.Client
	loginPath string
	limiter   ratelimit.Limiter
	// pagination pages are historically fetched outside the session
	// wrapper, carrying only its cookies
	anon      *resty.Client
	requested bool
}

func NewClient(opts ClientOptions) (*Client, error) {
	if opts.BaseUrl == "" {
		opts.BaseUrl = DefaultBaseUrl
	}
	if opts.LoginPath == "" {
		opts.LoginPath = DefaultLoginPath
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.Timeout == 0 {
		opts.Timeout = time.Second * 30
	}
	if opts.Limiter == (ratelimit.Limiter{}) {
		opts.Limiter = ratelimit.Default
	}

	baseUrl, err := url.Parse(opts.BaseUrl)
	if err != nil {
		return nil, err
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	client := resty.New()
	client.SetBaseURL(opts.BaseUrl)
	client.SetCookieJar(jar)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	client.SetHeader("user-agent", opts.UserAgent)
	client.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(baseUrl.Hostname()))
	client.SetTimeout(opts.Timeout)
	telemetry.InstrumentResty(client, "scrapers/distantrace/http")

	anon := resty.New()
	anon.SetBaseURL(opts.BaseUrl)
	anon.SetCookieJar(jar)
	anon.SetHeader("user-agent", opts.UserAgent)
	anon.SetTimeout(opts.Timeout)
	telemetry.InstrumentResty(anon, "scrapers/distantrace/http_anon")

	c := &Client{
		BaseUrl:   baseUrl,
		Http:      client,
		loginPath: opts.LoginPath,
		limiter:   opts.Limiter,
		anon:      anon,
	}
	return c, nil
}

// SetDumpOutput writes every exchanged http message to dir, for
// debugging markup changes locally.
func (c *Client) SetDumpOutput(dir string) {
	out := restyutil.NewFilesystemOutput(dir)
	out.Attach(c.Http)
	out.Attach(c.anon)
}

// the very first request of a session goes out immediately, every
// request after it is preceded by a politeness delay
func (c *Client) politeness(ctx context.Context) {
	if !c.requested {
		c.requested = true
		return
	}
	c.limiter.Wait(ctx)
}

func (c *Client) get(ctx context.Context, path string, referer string) (*resty.Response, error) {
	c.politeness(ctx)
	req := c.Http.R().SetContext(ctx)
	if referer != "" {
		req.SetHeader("Referer", c.BaseUrl.String()+referer)
	}
	return req.Get(path)
}

func (c *Client) getAnon(ctx context.Context, pageUrl string) (*resty.Response, error) {
	c.politeness(ctx)
	return c.anon.R().SetContext(ctx).Get(pageUrl)
}

func parseDocument(body []byte) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(bytes.NewReader(body))
}

// Login establishes an authenticated session and returns the body of
// the landing page, which already carries the active event list so the
// caller does not need to fetch it again.
func (c *Client) Login(ctx context.Context, creds Credentials) ([]byte, error) {
	res, err := c.get(ctx, c.loginPath, "")
	if err != nil {
		return nil, &AuthError{Reason: "login page unreachable", Err: err}
	}
	doc, err := parseDocument(res.Body())
	if err != nil {
		return nil, &AuthError{Reason: "login page unparsable", Err: err}
	}

	token := doc.Find("input[name=csrfmiddlewaretoken]").AttrOr("value", "")
	if token == "" {
		return nil, &AuthError{Reason: "token not found"}
	}

	c.politeness(ctx)
	// the form carries the anti-forgery token twice, matching what the
	// browser submits
	res, err = c.Http.R().
		SetContext(ctx).
		SetFormDataFromValues(url.Values{
			"csrfmiddlewaretoken": {token, token},
			"login":               {creds.Login},
			"password":            {creds.Password},
		}).
		SetHeader("Referer", c.BaseUrl.String()+c.loginPath).
		Post(c.loginPath)
	if err != nil {
		return nil, &AuthError{Reason: "login request failed", Err: err}
	}

	landing, err := parseDocument(res.Body())
	if err != nil {
		return nil, &AuthError{Reason: "landing page unparsable", Err: err}
	}
	if landing.Find("input[name=password]").Length() > 0 {
		return nil, &AuthError{Reason: "credentials rejected"}
	}

	return res.Body(), nil
}
