/*
Package main (doc.go) :
This is a CLI tool to download shared files and folders from Google Drive by pasting the shared URL.

The URL is classified as a file or a folder. The ID is extracted from the URL as follows.

- File: "/file/d/{ID}", "id={ID}", or the inputted value itself when it is an ID.

- Folder (URL including "/folders/"): "/folders/{ID}", or "id={ID}".

A file is downloaded to the output directory. When the size of file is large, Google Drive returns
a warning page instead of the content. At that time, the confirm code is retrieved from the cookie
or the form of the page, and the file is requested again.

A folder is downloaded to "{output directory}/{folder name}". The folder name is the title of the
web view of the folder. When it cannot be retrieved, "folder_{first 8 characters of ID}" is used.
Without API key, the files are retrieved from the embedded view of the folder. When API key is
used, the file list is retrieved by Drive API and Google Docs are exported.

---------------------------------------------------------------

# Usage

$ gdrive-downloader

An interactive session is started. The output directory (default "downloads") is asked, and
one URL or multiple URLs can be downloaded.

$ gdrive-downloader -u [URL of shared file or folder]

$ cat urls.txt | gdrive-downloader -d [directory]

$ gdrive-downloader -u [URL of shared folder] -key [API key]

---------------------------------------------------------------
*/
package main
