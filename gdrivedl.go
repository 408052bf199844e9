// Package main (gdrivedl.go) :
// These methods are for downloading shared files and folders from Google Drive.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/urfave/cli"
	"golang.org/x/term"
)

const (
	appname    = "gdrive-downloader"
	envval     = "GDRIVE_DOWNLOADER_APIKEY"
	driveURL   = "https://drive.google.com"
	driveAPI   = "https://www.googleapis.com/drive/v3/"
	defaultDir = "downloads"
	userAgent  = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

var (
	errNotShared  = errors.New("file is not shared or cannot be downloaded")
	errNeedAPIKey = errors.New("please use API key")
	errExists     = errors.New("file is existing")
	errNoFilename = errors.New("no filename could be determined")
)

// statusError : Error for a response with a non-success status code.
type statusError struct {
	Code int
	URL  string
}

func (e *statusError) Error() string {
	return "http status " + strconv.Itoa(e.Code) + " from " + e.URL
}

// config : Structure for the parameters of one session
type config struct {
	APIKey      string
	APIBase     string
	BaseURL     string
	Disp        bool
	MimeTypes   []string
	OverWrite   bool
	ShowFileInf bool
	Skip        bool
	WorkDir     string
	Out         io.Writer
}

// newClient : Client keeping cookies between the requests of one download.
func newClient() *http.Client {
	jar, _ := cookiejar.New(nil)
	return &http.Client{Jar: jar}
}

// fetchContext : Fetch data from Google Drive with the user agent of a browser.
func fetchContext(ctx context.Context, client *http.Client, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	return client.Do(req)
}

// newDispatcher : Select the downloaders for the session.
func newDispatcher(cfg *config) *dispatcher {
	web := &webDownloader{cfg: cfg, client: newClient()}
	d := &dispatcher{
		cfg:   cfg,
		files: web,
		names: func(ctx context.Context, id string) string {
			return resolveFolderName(ctx, newClient(), cfg.BaseURL, id)
		},
	}
	if cfg.APIKey != "" {
		a := &apiDownloader{cfg: cfg, client: &http.Client{}, web: web}
		d.folders = a
		d.info = a
	} else {
		d.folders = web
	}
	return d
}

// readURLs : Read URLs line by line until an empty line, "end" or EOF.
func readURLs(scanner *bufio.Scanner) ([]string, error) {
	var urls []string
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line == "end" {
			break
		}
		urls = append(urls, line)
	}
	return urls, scanner.Err()
}

// handler : Initialize of "config".
func handler(c *cli.Context) error {
	cfg := &config{
		APIKey:      c.String("apikey"),
		APIBase:     driveAPI,
		BaseURL:     driveURL,
		Disp:        c.Bool("NoProgress"),
		OverWrite:   c.Bool("overwrite"),
		ShowFileInf: c.Bool("fileinf"),
		Skip:        c.Bool("skip"),
		WorkDir:     c.String("directory"),
		Out:         os.Stdout,
		MimeTypes: func(mime string) []string {
			if mime != "" {
				return regexp.MustCompile(`\s*,\s*`).Split(mime, -1)
			}
			return nil
		}(c.String("mimetype")),
	}
	d := newDispatcher(cfg)
	ctx := context.Background()
	if u := c.String("url"); u != "" {
		if cfg.WorkDir == "" {
			cfg.WorkDir = defaultDir
		}
		if err := d.download(ctx, u); err != nil {
			return cli.NewExitError(fmt.Sprintf("Error: %v", err), 1)
		}
		return nil
	}
	scanner := bufio.NewScanner(os.Stdin)
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		if cfg.WorkDir == "" {
			cfg.WorkDir = defaultDir
		}
		urls, err := readURLs(scanner)
		if err != nil {
			return err
		}
		if len(urls) == 0 {
			return fmt.Errorf("no URL data. Please check help\n\n $ %s --help", appname)
		}
		d.batch(ctx, urls)
		return nil
	}
	s := &session{in: scanner, out: cfg.Out, d: d, askDir: cfg.WorkDir == ""}
	return s.run(ctx)
}

// createHelp : Create help document.
func createHelp() *cli.App {
	a := cli.NewApp()
	a.Name = appname
	a.Usage = "Download shared files and folders on Google Drive."
	a.UsageText = appname + " [options]\n   Without --url, an interactive session is started. URLs can also be piped, one per line."
	a.Version = "1.0.0"
	a.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "url, u",
			Usage: "URL of shared file or folder on Google Drive. When this is not used, the URLs are asked.",
		},
		cli.StringFlag{
			Name:  "directory, d",
			Usage: "Directory for saving downloaded files. When this is not used, it is asked (default 'downloads').",
		},
		cli.StringFlag{
			Name:  "mimetype, m",
			Usage: "mimeType (You can retrieve only files with the specific mimeType, when files are downloaded from a folder with API key.) ex. '-m \"mimeType1,mimeType2\"'",
		},
		cli.StringFlag{
			Name:   "apikey, key",
			Usage:  "API key is used to retrieve file list from shared folder and file information.",
			EnvVar: envval,
		},
		cli.BoolFlag{
			Name:  "NoProgress, np",
			Usage: "When this option is used, the progression is not shown.",
		},
		cli.BoolFlag{
			Name:  "overwrite, o",
			Usage: "When filename of downloading file is existing in directory at local PC, overwrite it. At default, it is not overwritten.",
		},
		cli.BoolFlag{
			Name:  "skip, s",
			Usage: "When filename of downloading file is existing in directory at local PC, skip it. At default, it is not overwritten.",
		},
		cli.BoolFlag{
			Name:  "fileinf, i",
			Usage: "Retrieve file information. API key is required.",
		},
	}
	return a
}

// main : Main of this script
func main() {
	a := createHelp()
	a.Action = handler
	if err := a.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
