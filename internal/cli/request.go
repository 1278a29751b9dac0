package cli

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/cobra"

	apihttp "github.com/wesleyorama2/apinette/http"
	"github.com/wesleyorama2/apinette/internal/output"
	"github.com/wesleyorama2/apinette/pkg/value"
)

type requestFlags struct {
	headers    []string
	data       string
	jsonBody   string
	user       string
	authPolicy string
	format     string
	verbose    bool
	failOnErr  bool
}

func (f *requestFlags) register(cmd *cobra.Command, withBody bool) {
	flags := cmd.Flags()
	flags.StringArrayVarP(&f.headers, "header", "H", nil, `header line "Name: value" (repeatable)`)
	if withBody {
		flags.StringVarP(&f.data, "data", "d", "", "raw request body; @FILE reads a file")
		flags.StringVarP(&f.jsonBody, "json", "j", "", "JSON request body; @FILE reads a file")
		cmd.MarkFlagsMutuallyExclusive("data", "json")
	}
	flags.StringVarP(&f.user, "user", "u", "", "basic auth credentials user:password")
	flags.StringVar(&f.authPolicy, "auth-policy", "append", "what to do with an explicit Authorization header (append, replace)")
	flags.StringVarP(&f.format, "format", "f", "text", "output format (text, json, yaml)")
	flags.BoolVarP(&f.verbose, "verbose", "v", false, "show headers and timing, and trace the exchange")
	flags.BoolVar(&f.failOnErr, "fail-on-error", false, "exit non-zero on a 4xx or 5xx status")
}

func newMethodCmd(a *app, method string) *cobra.Command {
	var f requestFlags
	withBody := method == "POST" || method == "PUT"
	cmd := &cobra.Command{
		Use:   strings.ToLower(method) + " URL",
		Short: fmt.Sprintf("Make a %s request to the specified URL", method),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.doRequest(cmd, method, args[0], &f)
		},
	}
	f.register(cmd, withBody)
	return cmd
}

func newRequestCmd(a *app) *cobra.Command {
	var (
		f      requestFlags
		method string
	)
	cmd := &cobra.Command{
		Use:   "request URL",
		Short: "Make a request with any method",
		Example: `  apinette request -X PATCH http://localhost:8000/echo --json '{"name":"Acme"}'
  apinette request -X OPTIONS https://example.com/`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.doRequest(cmd, strings.ToUpper(method), args[0], &f)
		},
	}
	cmd.Flags().StringVarP(&method, "request", "X", "GET", "request method")
	f.register(cmd, true)
	return cmd
}

func (a *app) doRequest(cmd *cobra.Command, method, rawURL string, f *requestFlags) error {
	format, err := output.ParseFormat(f.format)
	if err != nil {
		return err
	}

	spec, err := buildSpec(method, rawURL, f)
	if err != nil {
		return err
	}

	engine, err := a.engine()
	if err != nil {
		return err
	}
	defer engine.Close()

	out := cmd.OutOrStdout()
	formatter := output.GetFormatter(format, f.verbose, a.noColor(out))
	if format == output.FormatText {
		fmt.Fprint(out, formatter.FormatRequest(spec))
	}

	outcome, err := engine.SubmitOne(cmd.Context(), spec)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, strings.TrimRight(formatter.FormatOutcome(outcome), "\n"))

	if outcome.Failed() {
		return fmt.Errorf("request failed: %w", outcome.Err)
	}
	if f.failOnErr && outcome.Status >= 400 {
		return fmt.Errorf("request returned %d %s", outcome.Status, outcome.StatusText)
	}
	return nil
}

// buildSpec turns a command line URL and flags into a RequestSpec on a
// one-off Endpoint.
func buildSpec(method, rawURL string, f *requestFlags) (*apihttp.RequestSpec, error) {
	scheme, host, path, userinfo, err := parseURL(rawURL)
	if err != nil {
		return nil, err
	}

	policy, err := apihttp.ParseAuthPolicy(f.authPolicy)
	if err != nil {
		return nil, err
	}

	var auth apihttp.Auth = apihttp.NoAuth{}
	creds := f.user
	if creds == "" {
		creds = userinfo
	}
	if creds != "" {
		user, pass, _ := strings.Cut(creds, ":")
		auth = apihttp.Basic(user, pass)
	}

	ep, err := apihttp.NewEndpoint(apihttp.EndpointConfig{
		Scheme:     scheme,
		Host:       host,
		Auth:       auth,
		AuthPolicy: policy,
		Verbose:    f.verbose,
	})
	if err != nil {
		return nil, err
	}

	opts := make([]apihttp.RequestOption, 0, len(f.headers)+1)
	for _, line := range f.headers {
		opts = append(opts, apihttp.WithHeaderLine(line))
	}

	switch {
	case f.jsonBody != "":
		raw, err := readArg(f.jsonBody)
		if err != nil {
			return nil, err
		}
		v, err := value.Decode(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid --json body: %w", err)
		}
		opts = append(opts, apihttp.WithJSON(v))
	case f.data != "":
		raw, err := readArg(f.data)
		if err != nil {
			return nil, err
		}
		opts = append(opts, apihttp.WithBody(raw))
	}

	return ep.Request(method, path, opts...)
}

// parseURL splits a URL into scheme, host, path (with query) and user
// info. A missing scheme means http.
func parseURL(fullURL string) (scheme, host, path, userinfo string, err error) {
	if !strings.Contains(fullURL, "://") {
		fullURL = "http://" + fullURL
	}

	parsedURL, err := url.Parse(fullURL)
	if err != nil {
		return "", "", "", "", fmt.Errorf("invalid URL: %w", err)
	}
	if parsedURL.Host == "" {
		return "", "", "", "", fmt.Errorf("invalid URL %q: missing host", fullURL)
	}

	path = parsedURL.EscapedPath()
	if path == "" {
		path = "/"
	}
	if parsedURL.RawQuery != "" {
		path = path + "?" + parsedURL.RawQuery
	}

	if parsedURL.User != nil {
		userinfo = parsedURL.User.Username()
		if pw, ok := parsedURL.User.Password(); ok {
			userinfo += ":" + pw
		}
	}

	return parsedURL.Scheme, parsedURL.Host, path, userinfo, nil
}

// readArg returns s, or the contents of the file it names when it starts
// with "@".
func readArg(s string) ([]byte, error) {
	if name, ok := strings.CutPrefix(s, "@"); ok {
		data, err := os.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("error reading %s: %w", name, err)
		}
		return data, nil
	}
	return []byte(s), nil
}
