package tool

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sow-reviewer/internal/domain/entity"
	"sow-reviewer/internal/testutil"
)

type stubFetcher struct {
	page *entity.WebPage
	err  error
	urls []string
}

func (f *stubFetcher) Fetch(ctx context.Context, url string) (*entity.WebPage, error) {
	f.urls = append(f.urls, url)
	return f.page, f.err
}

func TestFetchCalculatorTool(t *testing.T) {
	const url = "https://calculator.aws/#/estimate?id=abc123def"

	t.Run("invalid url", func(t *testing.T) {
		fetcher := &stubFetcher{}
		tool := NewFetchCalculatorTool(fetcher, testutil.NewRecordingLogger())

		out, err := tool.Execute(context.Background(), `{"calculator_url":"https://example.com/pricing"}`)
		require.NoError(t, err)
		assert.Equal(t, "Invalid calculator URL format", out)
		assert.Empty(t, fetcher.urls)
	})

	t.Run("only calculator.aws over https", func(t *testing.T) {
		links := []string{
			"http://169.254.169.254/latest/meta-data?id=x",
			"http://127.0.0.1:8080/estimate/abc",
			"http://calculator.aws/#/estimate?id=abc",
			"https://calculator.aws.evil.example/estimate/abc",
			"https://evil.example/?next=calculator.aws&id=abc",
			"https://user@calculator.aws/estimate/abc",
			"https://calculator.aws:8443/estimate/abc",
		}
		for _, link := range links {
			fetcher := &stubFetcher{page: &entity.WebPage{StatusCode: 200, Text: "SECRET"}}
			tool := NewFetchCalculatorTool(fetcher, testutil.NewRecordingLogger())

			out, err := tool.Execute(context.Background(), `{"calculator_url":"`+link+`"}`)
			require.NoError(t, err)
			assert.Equal(t, "Invalid calculator URL format", out, link)
			assert.Empty(t, fetcher.urls, link)
		}
	})

	t.Run("reachable", func(t *testing.T) {
		fetcher := &stubFetcher{page: &entity.WebPage{
			URL:        url,
			StatusCode: 200,
			Title:      "AWS Pricing Calculator",
			Text:       strings.Repeat("x", excerptLen+10),
		}}
		tool := NewFetchCalculatorTool(fetcher, testutil.NewRecordingLogger())

		out, err := tool.Execute(context.Background(), `{"calculator_url":"`+url+`"}`)
		require.NoError(t, err)
		assert.Contains(t, out, "Calculator estimate ID: abc123def")
		assert.Contains(t, out, "Reachable: yes (HTTP 200)")
		assert.Contains(t, out, "Page title: AWS Pricing Calculator")
		assert.Contains(t, out, "...")
		assert.Equal(t, []string{url}, fetcher.urls)
	})

	t.Run("http error", func(t *testing.T) {
		fetcher := &stubFetcher{page: &entity.WebPage{StatusCode: 404}, err: errors.New("status 404")}
		tool := NewFetchCalculatorTool(fetcher, testutil.NewRecordingLogger())

		out, err := tool.Execute(context.Background(), `{"calculator_url":"https://calculator.aws/estimate/xyz789"}`)
		require.NoError(t, err)
		assert.Contains(t, out, "Calculator estimate ID: xyz789")
		assert.Contains(t, out, "Reachable: no (HTTP 404)")
	})

	t.Run("network error", func(t *testing.T) {
		logger := testutil.NewRecordingLogger()
		fetcher := &stubFetcher{err: errors.New("dial tcp: timeout")}
		tool := NewFetchCalculatorTool(fetcher, logger)

		out, err := tool.Execute(context.Background(), `{"calculator_url":"`+url+`"}`)
		require.NoError(t, err)
		assert.Contains(t, out, "Reachable: no (dial tcp: timeout)")
		assert.True(t, logger.Contains("Calculator fetch failed"))
	})
}
