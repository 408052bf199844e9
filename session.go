// Package main (session.go) :
// These methods are for the interactive session.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// session : Interactive menu reading the answers line by line.
type session struct {
	in     *bufio.Scanner
	out    io.Writer
	d      *dispatcher
	askDir bool
}

// readLine : Read one trimmed line. ok is false at EOF.
func (s *session) readLine(prompt string) (string, bool) {
	if prompt != "" {
		fmt.Fprint(s.out, prompt)
	}
	if !s.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(s.in.Text()), true
}

// run : Ask the output folder and show the menu until "3" or EOF.
func (s *session) run(ctx context.Context) error {
	fmt.Fprintln(s.out, strings.Repeat("=", 50))
	fmt.Fprintln(s.out, "Google Drive File/Folder Downloader")
	fmt.Fprintln(s.out, strings.Repeat("=", 50))
	if s.askDir {
		dir, ok := s.readLine("\nEnter output folder path (or press Enter for '" + defaultDir + "'): ")
		if !ok {
			return s.in.Err()
		}
		if dir == "" {
			dir = defaultDir
		}
		s.d.cfg.WorkDir = dir
	}
	for {
		fmt.Fprintln(s.out, "\nOptions:")
		fmt.Fprintln(s.out, "1. Download a file or folder")
		fmt.Fprintln(s.out, "2. Download multiple files/folders")
		fmt.Fprintln(s.out, "3. Exit")
		choice, ok := s.readLine("\nEnter choice (1-3): ")
		if !ok {
			return s.in.Err()
		}
		switch choice {
		case "1":
			u, ok := s.readLine("Enter Google Drive URL (file or folder): ")
			if !ok {
				return s.in.Err()
			}
			if u == "" {
				fmt.Fprintln(s.out, "No URL provided!")
				continue
			}
			if err := s.d.download(ctx, u); err != nil {
				fmt.Fprintf(s.out, "Error: %v\n", err)
			}
		case "2":
			fmt.Fprintln(s.out, "Enter Google Drive URLs (one per line, empty line to finish):")
			urls, err := readURLs(s.in)
			if err != nil {
				return err
			}
			if len(urls) == 0 {
				fmt.Fprintln(s.out, "No URLs provided!")
				continue
			}
			s.d.batch(ctx, urls)
		case "3":
			fmt.Fprintln(s.out, "Goodbye!")
			return nil
		default:
			fmt.Fprintln(s.out, "Invalid choice!")
		}
	}
}
