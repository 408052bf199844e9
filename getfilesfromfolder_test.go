package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	drive "google.golang.org/api/drive/v3"
)

func TestPlanDownload(t *testing.T) {
	l := driveListing{
		FolderIDs:   []string{"top", "f1", "f2", "f3"},
		FolderNames: []string{"Top", "Docs", "Docs", "a/b"},
		Groups: []fileGroup{
			{Tree: []string{"top"}, Files: []*drive.File{
				{Id: "1", Name: "a.txt", MimeType: "text/plain"},
				{Id: "2", Name: "a.txt", MimeType: "text/plain"},
				{Id: "3", Name: "Report", MimeType: "application/vnd.google-apps.document"},
			}},
			{Tree: []string{"top", "f1"}, Files: []*drive.File{{Id: "4", Name: "a.txt", MimeType: "text/plain"}}},
			{Tree: []string{"top", "f2"}, Files: []*drive.File{{Id: "5", Name: "Sheet.xlsx", MimeType: "application/vnd.google-apps.spreadsheet"}}},
			{Tree: []string{"top", "f2", "f3"}, Files: []*drive.File{{Id: "6", Name: "code", MimeType: scriptMime}}},
		},
	}
	planned := planDownload(l, "out")
	require.Len(t, planned, 6)
	assert.Equal(t, plannedFile{Dir: "out", Name: "a.txt", File: l.Groups[0].Files[0]}, planned[0])
	assert.Equal(t, "a_2.txt", planned[1].Name)
	assert.Equal(t, "Report.docx", planned[2].Name)
	assert.Equal(t, exportFormats["application/vnd.google-apps.document"].MimeType, planned[2].Export)
	assert.Equal(t, filepath.Join("out", "Docs"), planned[3].Dir)
	assert.Equal(t, "a.txt", planned[3].Name)
	assert.Equal(t, filepath.Join("out", "Docs_2"), planned[4].Dir)
	assert.Equal(t, "Sheet.xlsx", planned[4].Name)
	assert.Equal(t, filepath.Join("out", "Docs_2", "a_b"), planned[5].Dir)
	assert.Empty(t, planned[5].Export)
}

func TestDedupe(t *testing.T) {
	used := map[string]int{}
	assert.Equal(t, "x.tar", dedupe(used, "x.tar"))
	assert.Equal(t, "x_2.tar", dedupe(used, "x.tar"))
	assert.Equal(t, "x_3.tar", dedupe(used, "x.tar"))
	assert.Equal(t, "y", dedupe(used, "y"))
	assert.Equal(t, "y_2", dedupe(used, "y"))

	used = map[string]int{}
	assert.Equal(t, "a.txt", dedupe(used, "a.txt"))
	assert.Equal(t, "a_2.txt", dedupe(used, "a_2.txt"))
	assert.Equal(t, "a_3.txt", dedupe(used, "a.txt"))
	assert.Equal(t, "a_4.txt", dedupe(used, "a.txt"))
	assert.Equal(t, "a_2_2.txt", dedupe(used, "a_2.txt"))
}

func TestPlanDownloadFolderNamesPerParent(t *testing.T) {
	l := driveListing{
		FolderIDs:   []string{"top", "x", "y", "xs", "ys", "t2"},
		FolderNames: []string{"Top", "X", "Y", "Sub", "Sub", "Top"},
		Groups: []fileGroup{
			{Tree: []string{"top"}},
			{Tree: []string{"top", "x"}},
			{Tree: []string{"top", "y"}},
			{Tree: []string{"top", "x", "xs"}, Files: []*drive.File{{Id: "1", Name: "a"}}},
			{Tree: []string{"top", "y", "ys"}, Files: []*drive.File{{Id: "2", Name: "b"}}},
			{Tree: []string{"top", "t2"}, Files: []*drive.File{{Id: "3", Name: "c"}}},
		},
	}
	planned := planDownload(l, "out")
	require.Len(t, planned, 3)
	assert.Equal(t, filepath.Join("out", "X", "Sub"), planned[0].Dir)
	assert.Equal(t, filepath.Join("out", "Y", "Sub"), planned[1].Dir)
	assert.Equal(t, filepath.Join("out", "Top"), planned[2].Dir)
}

func TestMediaURL(t *testing.T) {
	a := &apiDownloader{cfg: &config{APIKey: "K", APIBase: driveAPI}}
	u, err := a.mediaURL(plannedFile{File: &drive.File{Id: "abc"}})
	require.NoError(t, err)
	assert.Equal(t, "https://www.googleapis.com/drive/v3/files/abc?alt=media&key=K", u)

	u, err = a.mediaURL(plannedFile{File: &drive.File{Id: "abc"}, Export: "image/png"})
	require.NoError(t, err)
	assert.Equal(t, "https://www.googleapis.com/drive/v3/files/abc/export?key=K&mimeType=image%2Fpng", u)
}

func TestDownloadFileByAPIKey(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "K", r.URL.Query().Get("key"))
		switch r.URL.Path {
		case "/files/ok":
			w.Header().Set("Content-Type", "text/plain")
			fmt.Fprint(w, "content")
		default:
			http.Error(w, `{"error": {"code": 404}}`, http.StatusNotFound)
		}
	}))
	defer ts.Close()
	out := &bytes.Buffer{}
	cfg := &config{APIKey: "K", APIBase: ts.URL + "/", Disp: true, Out: out}
	a := &apiDownloader{cfg: cfg, client: ts.Client(), web: &webDownloader{cfg: cfg, client: ts.Client()}}
	dir := t.TempDir()

	err := a.downloadFileByAPIKey(context.Background(), plannedFile{Dir: dir, Name: "saved.txt", File: &drive.File{Id: "ok"}})
	require.NoError(t, err)
	assert.Equal(t, "content", readFile(t, filepath.Join(dir, "saved.txt")))

	err = a.downloadFileByAPIKey(context.Background(), plannedFile{Dir: dir, Name: "x", File: &drive.File{Id: "missing"}})
	var se *statusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusNotFound, se.Code)
	assert.NotContains(t, err.Error(), "key=")
}

var parentsQuery = regexp.MustCompile(`^'([^']+)' in parents and mimeType(=| != )'application/vnd.google-apps.folder'`)

// apiServer : Drive API serving a shared folder "top" with a subfolder "sub".
func apiServer(t *testing.T) *httptest.Server {
	t.Helper()
	folders := map[string]string{
		"top": `[{"id": "sub", "name": "Sub", "mimeType": "application/vnd.google-apps.folder", "parents": ["top"]}]`,
	}
	files := map[string]string{
		"top": `[
			{"id": "a", "name": "a.txt", "mimeType": "text/plain", "parents": ["top"]},
			{"id": "rep", "name": "Report", "mimeType": "application/vnd.google-apps.document", "parents": ["top"]},
			{"id": "code", "name": "code", "mimeType": "application/vnd.google-apps.script", "parents": ["top"]},
			{"id": "form", "name": "form", "mimeType": "application/vnd.google-apps.form", "parents": ["top"]},
			{"id": "broken", "name": "broken.bin", "mimeType": "application/octet-stream", "parents": ["top"]}
		]`,
		"sub": `[{"id": "b", "name": "b.txt", "mimeType": "text/plain", "parents": ["sub"]}]`,
	}
	contents := map[string]string{"a": "content a", "b": "content b"}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "K", q.Get("key"))
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/files":
			m := parentsQuery.FindStringSubmatch(q.Get("q"))
			if !assert.NotNil(t, m, q.Get("q")) {
				fmt.Fprint(w, `{"files": []}`)
				return
			}
			list := files
			if m[2] == "=" {
				list = folders
			}
			body, ok := list[m[1]]
			if !ok {
				body = "[]"
			}
			fmt.Fprintf(w, `{"files": %s}`, body)
		case r.URL.Path == "/files/rep/export":
			assert.Equal(t, exportFormats["application/vnd.google-apps.document"].MimeType, q.Get("mimeType"))
			fmt.Fprint(w, "docx content")
		case r.URL.Path == "/files/top" && q.Get("alt") != "media":
			fmt.Fprint(w, `{"id": "top", "name": "Top", "shared": true, "mimeType": "application/vnd.google-apps.folder"}`)
		case q.Get("alt") == "media":
			body, ok := contents[strings.TrimPrefix(r.URL.Path, "/files/")]
			if !ok {
				http.Error(w, `{"error": {"code": 500}}`, http.StatusInternalServerError)
				return
			}
			w.Header().Set("Content-Type", "text/plain")
			fmt.Fprint(w, body)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(ts.Close)
	return ts
}

func newTestAPI(t *testing.T, ts *httptest.Server) (*apiDownloader, *bytes.Buffer) {
	t.Helper()
	out := &bytes.Buffer{}
	cfg := &config{APIKey: "K", APIBase: ts.URL + "/", BaseURL: driveURL, Disp: true, Out: out}
	return &apiDownloader{cfg: cfg, client: ts.Client(), web: &webDownloader{cfg: cfg, client: ts.Client()}}, out
}

func TestAPIDownloadFolder(t *testing.T) {
	ts := apiServer(t)
	a, out := newTestAPI(t, ts)
	dir := t.TempDir()
	err := a.downloadFolder(context.Background(), "https://drive.google.com/drive/folders/top", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 6 files")

	assert.Equal(t, "content a", readFile(t, filepath.Join(dir, "a.txt")))
	assert.Equal(t, "docx content", readFile(t, filepath.Join(dir, "Report.docx")))
	assert.Equal(t, "content b", readFile(t, filepath.Join(dir, "Sub", "b.txt")))
	assert.NoFileExists(t, filepath.Join(dir, "broken.bin"))
	assert.NoFileExists(t, filepath.Join(dir, "code"))

	o := out.String()
	assert.Contains(t, o, "'code' is a project file. Project file cannot be downloaded using API key.")
	assert.Contains(t, o, "'form' (application/vnd.google-apps.form) cannot be downloaded.")
	assert.Contains(t, o, "## Skipped: 'broken.bin' (fileId: broken)")
}

func TestShowFolderInf(t *testing.T) {
	ts := apiServer(t)
	a, out := newTestAPI(t, ts)
	require.NoError(t, a.showFolderInf(context.Background(), "top"))
	o := out.String()
	assert.Contains(t, o, `"searchedFolder"`)
	assert.Contains(t, o, `"totalNumberOfFiles":6`)
	assert.Contains(t, o, `"totalNumberOfFolders":2`)
	assert.Contains(t, o, `"b.txt"`)
}
