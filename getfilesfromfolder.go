// Package main (getfilesfromfolder.go) :
// These methods are for downloading all files from a shared folder of Google Drive using API key.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	getfilelist "github.com/tanaikech/go-getfilelist"
	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

const (
	googleApps = "application/vnd.google-apps"
	scriptMime = "application/vnd.google-apps.script"
)

// exportFormat : mimeType and extension used for exporting Google Docs.
type exportFormat struct {
	MimeType string
	Ext      string
}

var exportFormats = map[string]exportFormat{
	"application/vnd.google-apps.document":     {"application/vnd.openxmlformats-officedocument.wordprocessingml.document", ".docx"},
	"application/vnd.google-apps.spreadsheet":  {"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", ".xlsx"},
	"application/vnd.google-apps.presentation": {"application/vnd.openxmlformats-officedocument.presentationml.presentation", ".pptx"},
	"application/vnd.google-apps.drawing":      {"image/png", ".png"},
}

// plannedFile : A file of the folder with its local directory.
type plannedFile struct {
	Dir    string
	Name   string
	File   *drive.File
	Export string
}

// apiDownloader : Downloader using Drive API with API key.
type apiDownloader struct {
	cfg    *config
	client *http.Client
	web    *webDownloader
}

// service : Drive API service authorized by API key.
func (a *apiDownloader) service(ctx context.Context) (*drive.Service, error) {
	return drive.NewService(ctx, option.WithAPIKey(a.cfg.APIKey), option.WithEndpoint(a.cfg.APIBase))
}

// listFolder : Retrieve the file list of all files under the folder.
func (a *apiDownloader) listFolder(ctx context.Context, id string) (*getfilelist.FileListDl, error) {
	srv, err := a.service(ctx)
	if err != nil {
		return nil, err
	}
	if len(a.cfg.MimeTypes) > 0 {
		return getfilelist.Folder(id).MimeType(a.cfg.MimeTypes).Do(srv)
	}
	return getfilelist.Folder(id).Do(srv)
}

// showFolderInf : Show the file list of the folder as JSON.
func (a *apiDownloader) showFolderInf(ctx context.Context, id string) error {
	fileList, err := a.listFolder(ctx, id)
	if err != nil {
		return err
	}
	r, err := json.Marshal(fileList)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.cfg.Out, "%s\n", r)
	return nil
}

// dedupe : Return name, or name with a counter when it was already used.
// The returned name is marked as used too, so it is never returned twice.
func dedupe(used map[string]int, name string) string {
	if used[name] == 0 {
		used[name] = 1
		return name
	}
	ext := filepath.Ext(name)
	for n := used[name] + 1; ; n++ {
		c := name[:len(name)-len(ext)] + "_" + strconv.Itoa(n) + ext
		if used[c] == 0 {
			used[name] = n
			used[c] = 1
			return c
		}
	}
}

// driveListing : Files of a folder grouped by the folder tree. Each Tree starts at the top folder.
type driveListing struct {
	FolderIDs   []string
	FolderNames []string
	Groups      []fileGroup
}

type fileGroup struct {
	Tree  []string
	Files []*drive.File
}

// toListing : Convert the file list retrieved by go-getfilelist.
func toListing(fl *getfilelist.FileListDl) driveListing {
	l := driveListing{
		FolderIDs:   fl.FolderTree.Folders,
		FolderNames: fl.FolderTree.Names,
	}
	for _, e := range fl.FileList {
		l.Groups = append(l.Groups, fileGroup{Tree: e.FolderTree, Files: e.Files})
	}
	return l
}

// planDownload : Decide the local path of each file. The top folder itself corresponds to root.
// Duplicated names of folders in the same parent and of files in the same folder are numbered.
func planDownload(l driveListing, root string) []plannedFile {
	parents := map[string]string{}
	for _, g := range l.Groups {
		for j := 1; j < len(g.Tree); j++ {
			parents[g.Tree[j]] = g.Tree[j-1]
		}
	}
	names := map[string]string{}
	usedFolders := map[string]map[string]int{}
	for i, id := range l.FolderIDs {
		if i == 0 || i >= len(l.FolderNames) {
			continue
		}
		parent := parents[id]
		if usedFolders[parent] == nil {
			usedFolders[parent] = map[string]int{}
		}
		names[id] = dedupe(usedFolders[parent], safeName(l.FolderNames[i]))
	}
	var planned []plannedFile
	for _, g := range l.Groups {
		dir := root
		if len(g.Tree) > 1 {
			for _, id := range g.Tree[1:] {
				dir = filepath.Join(dir, names[id])
			}
		}
		usedFiles := map[string]int{}
		for _, file := range g.Files {
			name := file.Name
			export := ""
			if f, ok := exportFormats[file.MimeType]; ok {
				export = f.MimeType
				if filepath.Ext(name) == "" {
					name += f.Ext
				}
			}
			planned = append(planned, plannedFile{Dir: dir, Name: dedupe(usedFiles, name), File: file, Export: export})
		}
	}
	return planned
}

// mediaURL : URL of the content of the file. Google Docs are exported.
func (a *apiDownloader) mediaURL(p plannedFile) (string, error) {
	u, err := url.Parse(strings.TrimSuffix(a.cfg.APIBase, "/") + "/files/" + url.PathEscape(p.File.Id))
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("key", a.cfg.APIKey)
	if p.Export != "" {
		u.Path += "/export"
		q.Set("mimeType", p.Export)
	} else {
		q.Set("alt", "media")
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// downloadFileByAPIKey : Download file using API key.
func (a *apiDownloader) downloadFileByAPIKey(ctx context.Context, p plannedFile) error {
	u, err := a.mediaURL(p)
	if err != nil {
		return err
	}
	res, err := fetchContext(ctx, a.client, u)
	if err != nil {
		return err
	}
	if res.StatusCode != http.StatusOK {
		defer res.Body.Close()
		r, err := ioutil.ReadAll(res.Body)
		if err != nil {
			return err
		}
		return fmt.Errorf("%w: %s", &statusError{Code: res.StatusCode, URL: a.cfg.APIBase + "files/" + p.File.Id}, r)
	}
	_, err = a.web.save(res, p.Dir, p.Name)
	return err
}

// downloadFolder : Download all files in a shared folder to dir.
func (a *apiDownloader) downloadFolder(ctx context.Context, folderURL, dir string) error {
	ref, err := classify(folderURL)
	if err != nil {
		return err
	}
	fileList, err := a.listFolder(ctx, ref.ID)
	if err != nil {
		return err
	}
	if !a.cfg.Disp {
		if fileList.SearchedFolder != nil {
			fmt.Fprintf(a.cfg.Out, "Download files from a folder '%s'.\n", fileList.SearchedFolder.Name)
		}
		fmt.Fprintf(a.cfg.Out, "There are %d files and %d folders in the folder.\n", fileList.TotalNumberOfFiles, fileList.TotalNumberOfFolders-1)
	}
	failed := 0
	planned := planDownload(toListing(fileList), dir)
	for _, p := range planned {
		if p.File.MimeType == scriptMime {
			fmt.Fprintf(a.cfg.Out, "'%s' is a project file. Project file cannot be downloaded using API key.\n", p.File.Name)
			continue
		}
		if strings.HasPrefix(p.File.MimeType, googleApps) && p.Export == "" {
			fmt.Fprintf(a.cfg.Out, "'%s' (%s) cannot be downloaded.\n", p.File.Name, p.File.MimeType)
			continue
		}
		if err := os.MkdirAll(p.Dir, 0777); err != nil {
			return err
		}
		if err := a.downloadFileByAPIKey(ctx, p); err != nil {
			fmt.Fprintf(a.cfg.Out, "## Skipped: '%s' (fileId: %s): %v\n", p.File.Name, p.File.Id, err)
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files in the folder could not be downloaded", failed, len(planned))
	}
	return nil
}
