package report_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/niaga-platform/service-revenue-scanner/internal/report"
)

func TestRenderShopReport(t *testing.T) {
	t.Parallel()

	doc, err := report.RenderShopReport("Batik House", time.Date(2025, 6, 30, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(doc.Content, []byte("%PDF-")))
	require.Equal(t, "Batik House-revenue-leak-report.pdf", doc.Filename)
	require.Equal(t, `inline; filename="Batik House-revenue-leak-report.pdf"`, doc.ContentDisposition())
}

func TestRenderShopReportDefaultName(t *testing.T) {
	t.Parallel()

	doc, err := report.RenderShopReport("   ", time.Now())
	require.NoError(t, err)
	require.Equal(t, "Your Store-revenue-leak-report.pdf", doc.Filename)
	require.NotEmpty(t, doc.Content)
}

func TestRenderShopReportNonLatinName(t *testing.T) {
	t.Parallel()

	doc, err := report.RenderShopReport("Kedai Kopi Café", time.Now())
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(doc.Content, []byte("%PDF-")))
	require.Contains(t, doc.ContentDisposition(), "inline; filename*=")
}
