package gsheets

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const htmlviewBody = `<html><head><script>
var bootstrapData = [];
items.push({name: "PlayerList", pageUrl: "x", gid: "0"});
items.push({name: "Tour 1", pageUrl: "y", gid: "101"});
items.push({name: "Тур 2 (финал)", pageUrl: "z", gid: "102"});
</script></head>
<body>
<table class="waffle"><tbody>
<tr><td colspan="2">S01E01F01</td><td>S01E01F02</td></tr>
<tr><td>Анна<br>Борис</td><td>10</td><td>20</td></tr>
</tbody></table>
</body></html>`

func newTestServer(t *testing.T) (*httptest.Server, *Client) {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/spreadsheets/d/sheet-1/htmlview", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(htmlviewBody))
	})
	mux.HandleFunc("/spreadsheets/d/sheet-1/gviz/tq", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("gid") {
		case "0":
			_, _ = w.Write([]byte("\xEF\xBB\xBFАнна,псевдоним\nБорис,\n"))
		case "101", "102":
			_, _ = w.Write([]byte("a,b\nc,d\n"))
		default:
			http.NotFound(w, r)
		}
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	client := New(Options{BaseURL: server.URL, RatePerSec: 1000})
	return server, client
}

func TestCatalog(t *testing.T) {
	_, client := newTestServer(t)

	worksheets, err := client.Catalog(context.Background(), "sheet-1")
	require.NoError(t, err)
	require.Len(t, worksheets, 3)
	assert.Equal(t, Worksheet{Name: "PlayerList", GID: "0"}, worksheets[0])
	assert.Equal(t, Worksheet{Name: "Тур 2 (финал)", GID: "102"}, worksheets[2])
}

func TestFetchCSVStripsBOM(t *testing.T) {
	_, client := newTestServer(t)

	grid, err := client.FetchCSV(context.Background(), "sheet-1", "0")
	require.NoError(t, err)
	require.Len(t, grid, 2)
	assert.Equal(t, "Анна", grid[0][0])
}

func TestFetchCSVNotFound(t *testing.T) {
	_, client := newTestServer(t)

	_, err := client.FetchCSV(context.Background(), "sheet-1", "999")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestFetchWaffle(t *testing.T) {
	_, client := newTestServer(t)

	grids, err := client.FetchWaffle(context.Background(), "sheet-1")
	require.NoError(t, err)
	require.Len(t, grids, 1)
	require.Len(t, grids[0], 2)
	assert.Equal(t, []string{"S01E01F01", "", "S01E01F02"}, grids[0][0])
	assert.Equal(t, "Анна\nБорис", grids[0][1][0])
}

func TestWorksheetSlug(t *testing.T) {
	for name, want := range map[string]string{
		"Tour 1":         "tour_1",
		"Тур 2 (финал)":  "tur_2_final",
		"PlayerList":     "playerlist",
		"Щит и меч":      "schit_i_mech",
		"!!!":            "sheet_42",
	} {
		assert.Equal(t, want, Worksheet{Name: name, GID: "42"}.Slug(), "name %q", name)
	}
}

func TestDownloadAll(t *testing.T) {
	_, client := newTestServer(t)
	destination := t.TempDir()

	manifest, err := client.DownloadAll(context.Background(), "sheet-1", destination)
	require.NoError(t, err)
	require.Len(t, manifest, 3)

	assert.Equal(t, "01_playerlist.csv", manifest[0].Filename)
	assert.Equal(t, "02_tour_1.csv", manifest[1].Filename)
	assert.Equal(t, "03_tur_2_final.csv", manifest[2].Filename)
	assert.Equal(t, 2, manifest[0].Rows)

	for _, entry := range manifest {
		_, err := os.Stat(filepath.Join(destination, "csv", entry.Filename))
		assert.NoError(t, err, "file %s", entry.Filename)
	}

	data, err := os.ReadFile(filepath.Join(destination, "manifest.json"))
	require.NoError(t, err)
	var decoded []ManifestEntry
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, manifest, decoded)
}
