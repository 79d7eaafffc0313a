package csvsource

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"rentals/internal/domain"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "feed.csv")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestReadRows(t *testing.T) {
	body := "\xEF\xBB\xBF user_id , user_email ,prop_id\n" +
		"u1,a@x.com,p1\n" +
		"\n" +
		"u2,,\n" +
		"u3\n" +
		",,\n"
	rows, err := New().ReadRows(context.Background(), writeFile(t, body))
	require.NoError(t, err)
	require.Equal(t, []domain.Row{
		{"user_id": "u1", "user_email": "a@x.com", "prop_id": "p1"},
		{"user_id": "u2"},
		{"user_id": "u3"},
	}, rows)

	v, ok := rows[1].Get("user_email")
	require.False(t, ok)
	require.Empty(t, v)
}

func TestReadRows_QuotedCells(t *testing.T) {
	body := "user_id,prop_amenities\nu1,\"wifi, pool\"\n"
	rows, err := New().ReadRows(context.Background(), writeFile(t, body))
	require.NoError(t, err)
	require.Equal(t, "wifi, pool", rows[0]["prop_amenities"])
}

func TestReadRows_Missing(t *testing.T) {
	_, err := New().ReadRows(context.Background(), filepath.Join(t.TempDir(), "nope.csv"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestParse_MissingHeader(t *testing.T) {
	_, err := Parse(context.Background(), strings.NewReader(""))
	require.ErrorIs(t, err, ErrMissingHeader)
}

func TestParse_HeaderOnly(t *testing.T) {
	rows, err := Parse(context.Background(), strings.NewReader("user_id,user_email\n"))
	require.NoError(t, err)
	require.Empty(t, rows)
}

func TestParse_MalformedReportsLine(t *testing.T) {
	_, err := Parse(context.Background(), strings.NewReader("a,b\n1,2\n3,\"4\"x\n"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "line 3")
}

func TestParse_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Parse(ctx, strings.NewReader("a\n1\n"))
	require.ErrorIs(t, err, context.Canceled)
}
