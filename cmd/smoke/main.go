package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"codesurvey/internal/catalog"
	"codesurvey/internal/report"
	"codesurvey/internal/schemas"
	"codesurvey/internal/survey"
)

type options struct {
	base     string
	nickname string
	think    time.Duration
	wrong    bool
	out      string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:           "smoke",
		Short:         "Drive one participant through a running survey API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.base, "base", envOr("API_BASE_URL", "http://localhost:8000"), "API base URL")
	f.StringVar(&opts.nickname, "nickname", "smoke-tester", "participant nickname")
	f.DurationVar(&opts.think, "think", 200*time.Millisecond, "pause between reveal and answer")
	f.BoolVar(&opts.wrong, "wrong", false, "answer every trial incorrectly")
	f.StringVar(&opts.out, "out", "", "write the results CSV to this file")
	return cmd
}

type client struct {
	http  *http.Client
	base  string
	token string
}

func run(ctx context.Context, out io.Writer, opts *options) error {
	c := &client{http: &http.Client{Timeout: 12 * time.Second}, base: opts.base}

	var created schemas.CreateSessionResponse
	if err := c.do(ctx, http.MethodPost, "/sessions", nil, &created); err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	c.token = created.Token
	fmt.Fprintf(out, "✅ Created session %s\n", created.SessionID)
	path := "/sessions/" + created.SessionID

	var er schemas.EventResponse
	if err := c.event(ctx, path, schemas.EventRequest{Type: survey.EventSubmitNickname, Nickname: opts.nickname}, &er); err != nil {
		return err
	}
	if err := c.event(ctx, path, schemas.EventRequest{Type: survey.EventAcknowledge}, &er); err != nil {
		return err
	}
	fmt.Fprintf(out, "✅ Started survey with %d trials\n", er.Session.Trial.Total)

	cat := catalog.Default()
	for er.Session.Phase != survey.PhaseDone {
		trial := er.Session.Trial
		if err := c.event(ctx, path, schemas.EventRequest{Type: survey.EventReveal}, &er); err != nil {
			return err
		}
		time.Sleep(opts.think)
		answer := "????"
		if g, ok := cat.Group(trial.Group); ok && !opts.wrong {
			answer = g.Codes[0]
		}
		if err := c.event(ctx, path, schemas.EventRequest{Type: survey.EventSubmitAnswer, Answer: answer}, &er); err != nil {
			return err
		}
		fmt.Fprintf(out, "  trial %2d/%d %-4s %s -> correct=%t time=%.3fs\n",
			trial.Number, trial.Total, trial.Group, trial.ImageURL, er.Record.Correct, er.Record.TimeSec)
		for _, w := range er.Warnings {
			fmt.Fprintf(out, "  ⚠️  %s\n", w)
		}
	}

	var sum report.Summary
	if err := c.do(ctx, http.MethodGet, path+"/summary", nil, &sum); err != nil {
		return fmt.Errorf("summary: %w", err)
	}
	fmt.Fprintf(out, "✅ Accuracy %.3f, mean time %.3fs over %d trials\n", sum.Accuracy, sum.MeanTimeSec, sum.Trials)

	if opts.out != "" {
		csv, err := c.raw(ctx, path+"/results.csv")
		if err != nil {
			return fmt.Errorf("download results: %w", err)
		}
		if err := os.WriteFile(opts.out, csv, 0o644); err != nil {
			return err
		}
		fmt.Fprintf(out, "✅ Wrote %s\n", opts.out)
	}
	fmt.Fprintf(out, "🎉 Smoke run OK. SessionID=%s\n", created.SessionID)
	return nil
}

func (c *client) event(ctx context.Context, path string, req schemas.EventRequest, out *schemas.EventResponse) error {
	if err := c.do(ctx, http.MethodPost, path+"/events", req, out); err != nil {
		return fmt.Errorf("%s: %w", req.Type, err)
	}
	return nil
}

func (c *client) request(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, r)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	res, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	if res.StatusCode/100 != 2 {
		defer res.Body.Close()
		b, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("%s %s -> %d: %s", method, path, res.StatusCode, bytes.TrimSpace(b))
	}
	return res, nil
}

func (c *client) do(ctx context.Context, method, path string, body, out any) error {
	res, err := c.request(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if out != nil {
		return json.NewDecoder(res.Body).Decode(out)
	}
	return nil
}

func (c *client) raw(ctx context.Context, path string) ([]byte, error) {
	res, err := c.request(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	return io.ReadAll(res.Body)
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
