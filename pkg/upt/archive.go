package upt

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/ralt/upt/internal/fetch"
	"github.com/ralt/upt/internal/utils"
	"github.com/sirupsen/logrus"
)

// ArchiveType identifies the kind of file an Archive points to
type ArchiveType int

const (
	SourceTarball ArchiveType = iota
	Wheel
	Gem
	Crate
	NpmTarball
	Zip
	Binary
)

// String returns the string representation of ArchiveType
func (t ArchiveType) String() string {
	switch t {
	case SourceTarball:
		return "source tarball"
	case Wheel:
		return "wheel"
	case Gem:
		return "gem"
	case Crate:
		return "crate"
	case NpmTarball:
		return "npm tarball"
	case Zip:
		return "zip"
	case Binary:
		return "binary"
	default:
		return "unknown"
	}
}

// ParseArchiveType is the inverse of String. Underscores may replace spaces.
func ParseArchiveType(s string) (ArchiveType, error) {
	name := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", " ")
	for t := SourceTarball; t <= Binary; t++ {
		if t.String() == name {
			return t, nil
		}
	}
	return SourceTarball, fmt.Errorf("unknown archive type %q", s)
}

// ArchiveTypeFromFilename guesses the archive type from a file name's extension.
func ArchiveTypeFromFilename(name string) ArchiveType {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".whl"):
		return Wheel
	case strings.HasSuffix(lower, ".gem"):
		return Gem
	case strings.HasSuffix(lower, ".crate"):
		return Crate
	case strings.HasSuffix(lower, ".tgz") && !strings.Contains(lower, ".tar"):
		return NpmTarball
	case strings.HasSuffix(lower, ".zip"):
		return Zip
	case strings.Contains(lower, ".tar"):
		return SourceTarball
	case strings.HasSuffix(lower, ".exe"), strings.HasSuffix(lower, ".bin"),
		strings.HasSuffix(lower, ".deb"), strings.HasSuffix(lower, ".rpm"):
		return Binary
	default:
		return SourceTarball
	}
}

// Checksum algorithm names accepted by Archive.Checksum
const (
	MD5          = utils.MD5
	SHA1         = utils.SHA1
	SHA256       = utils.SHA256
	SHA256Base64 = utils.SHA256Base64
	SHA512       = utils.SHA512
	RMD160       = utils.RMD160
)

var (
	defaultFetcher     fetch.Fetcher
	defaultDownloadDir string
)

// SetDefaultFetcher sets the fetcher used by archives created without WithFetcher.
// It is meant to be called once by the program's bootstrap.
func SetDefaultFetcher(f fetch.Fetcher) {
	defaultFetcher = f
}

// SetDefaultDownloadDir sets the directory archives are downloaded to when
// created without WithDownloadDir. Empty means os.TempDir().
func SetDefaultDownloadDir(dir string) {
	defaultDownloadDir = dir
}

func sharedFetcher() fetch.Fetcher {
	if defaultFetcher == nil {
		defaultFetcher = fetch.NewClient()
	}
	return defaultFetcher
}

// computeChecksum is swapped in tests to count digest computations
var computeChecksum = utils.ComputeChecksum

// Archive is one downloadable file for a package version: a source tarball,
// a Python wheel, a Ruby gem, a binary, etc.
//
// The file is only downloaded when something needs its contents: Filepath,
// Size when no size was declared, or a checksum that was not supplied.
// The downloaded file is removed by the owning Package's Clean.
// An Archive is not safe for concurrent use.
type Archive struct {
	URL  string
	Type ArchiveType

	size        int64
	filepath    string
	tempDir     string
	filename    string
	hashes      map[string]string
	fetcher     fetch.Fetcher
	downloadDir string
	removed     bool
}

// ArchiveOption configures an Archive.
type ArchiveOption func(*Archive)

// WithArchiveType sets the archive type (default SourceTarball).
func WithArchiveType(t ArchiveType) ArchiveOption {
	return func(a *Archive) {
		a.Type = t
	}
}

// WithSize declares the archive size in bytes. 0 means unknown.
func WithSize(size int64) ArchiveOption {
	return func(a *Archive) {
		a.size = size
	}
}

// WithChecksum supplies a known digest for algorithm.
func WithChecksum(algorithm, value string) ArchiveOption {
	return func(a *Archive) {
		a.hashes[algorithm] = value
	}
}

// WithMD5 supplies a known md5 digest.
func WithMD5(value string) ArchiveOption { return WithChecksum(MD5, value) }

// WithSHA256 supplies a known hex sha256 digest.
func WithSHA256(value string) ArchiveOption { return WithChecksum(SHA256, value) }

// WithSHA256Base64 supplies a known base64 sha256 digest.
func WithSHA256Base64(value string) ArchiveOption { return WithChecksum(SHA256Base64, value) }

// WithRMD160 supplies a known rmd160 digest.
func WithRMD160(value string) ArchiveOption { return WithChecksum(RMD160, value) }

// WithFetcher sets the fetcher used to download the archive.
func WithFetcher(f fetch.Fetcher) ArchiveOption {
	return func(a *Archive) {
		a.fetcher = f
	}
}

// WithDownloadDir sets the directory the archive is downloaded to.
func WithDownloadDir(dir string) ArchiveOption {
	return func(a *Archive) {
		a.downloadDir = dir
	}
}

// NewArchive creates an Archive for rawURL.
func NewArchive(rawURL string, opts ...ArchiveOption) *Archive {
	a := &Archive{
		URL:    rawURL,
		Type:   SourceTarball,
		hashes: make(map[string]string),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Filename returns the last path element of the archive URL.
func (a *Archive) Filename() string {
	if a.filename == "" {
		a.filename = filenameFromURL(a.URL)
	}
	return a.filename
}

func filenameFromURL(rawURL string) string {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Path != "" {
		p = u.Path
	}
	name := path.Base(strings.TrimRight(p, "/"))
	if name == "." || name == "/" || name == "" {
		return "archive"
	}
	return name
}

// Filepath returns the local path of the archive, downloading it first if
// that has not happened yet. The download happens at most once per Archive.
func (a *Archive) Filepath(ctx context.Context) (string, error) {
	if err := a.ensureDownloaded(ctx); err != nil {
		return "", err
	}
	return a.filepath, nil
}

func (a *Archive) ensureDownloaded(ctx context.Context) error {
	if a.filepath != "" {
		return nil
	}

	dir := a.downloadDir
	if dir == "" {
		dir = defaultDownloadDir
	}
	if dir == "" {
		dir = os.TempDir()
	}

	// Every archive gets its own directory so that neither an existing file
	// nor another archive with the same basename is ever overwritten.
	if err := utils.EnsureDir(dir); err != nil {
		return &Error{Kind: ErrKindFileAccess, Package: dir, Err: err}
	}
	tempDir, err := os.MkdirTemp(dir, "upt-*")
	if err != nil {
		return &Error{Kind: ErrKindFileAccess, Package: dir, Err: err}
	}
	dest := filepath.Join(tempDir, a.Filename())

	f := a.fetcher
	if f == nil {
		f = sharedFetcher()
	}

	logrus.Debugf("Downloading %s", a.URL)
	if _, err := fetch.DownloadToFile(ctx, f, a.URL, dest); err != nil {
		_ = os.RemoveAll(tempDir)
		return &Error{Kind: ErrKindDownload, Package: a.URL, Err: err}
	}
	a.filepath = dest
	a.tempDir = tempDir
	return nil
}

// Downloaded reports whether the archive has been downloaded.
func (a *Archive) Downloaded() bool {
	return a.filepath != ""
}

// LocalPath returns the local path of the archive, or "" if it has not been
// downloaded. It never triggers a download.
func (a *Archive) LocalPath() string {
	return a.filepath
}

// Size returns the archive size in bytes. If no size was declared the archive
// is downloaded and its size is read from disk; the result is then cached.
func (a *Archive) Size(ctx context.Context) (int64, error) {
	if a.size != 0 {
		return a.size, nil
	}

	p, err := a.Filepath(ctx)
	if err != nil {
		return 0, err
	}
	info, err := os.Stat(p)
	if err != nil {
		return 0, &Error{Kind: ErrKindFileAccess, Package: p, Err: err}
	}
	a.size = info.Size()
	return a.size, nil
}

// Checksum returns the digest of the archive for algorithm. A digest supplied
// by the frontend or computed earlier is returned as is; otherwise the archive
// is downloaded if needed and hashed once.
func (a *Archive) Checksum(ctx context.Context, algorithm string) (string, error) {
	if v, ok := a.hashes[algorithm]; ok {
		return v, nil
	}
	if !utils.SupportsAlgorithm(algorithm) {
		return "", &Error{
			Kind:    ErrKindUnsupportedAlgorithm,
			Package: a.URL,
			Err:     fmt.Errorf("%w: %q", utils.ErrUnsupportedAlgorithm, algorithm),
		}
	}

	p, err := a.Filepath(ctx)
	if err != nil {
		return "", err
	}

	value, err := computeChecksum(p, algorithm)
	if err != nil {
		kind := ErrKindFileAccess
		if errors.Is(err, utils.ErrUnsupportedAlgorithm) {
			kind = ErrKindUnsupportedAlgorithm
		}
		return "", &Error{Kind: kind, Package: p, Err: err}
	}

	a.hashes[algorithm] = value
	return value, nil
}

// SetChecksum records a known digest for algorithm. The value is trusted as is.
func (a *Archive) SetChecksum(algorithm, value string) {
	a.hashes[algorithm] = value
}

// MD5 returns the md5 digest of the archive.
func (a *Archive) MD5(ctx context.Context) (string, error) {
	return a.Checksum(ctx, MD5)
}

// SetMD5 records a known md5 digest.
func (a *Archive) SetMD5(value string) {
	a.SetChecksum(MD5, value)
}

// SHA256 returns the hex sha256 digest of the archive.
func (a *Archive) SHA256(ctx context.Context) (string, error) {
	return a.Checksum(ctx, SHA256)
}

// SetSHA256 records a known hex sha256 digest.
func (a *Archive) SetSHA256(value string) {
	a.SetChecksum(SHA256, value)
}

// SHA256Base64 returns the base64 sha256 digest of the archive.
func (a *Archive) SHA256Base64(ctx context.Context) (string, error) {
	return a.Checksum(ctx, SHA256Base64)
}

// SetSHA256Base64 records a known base64 sha256 digest.
func (a *Archive) SetSHA256Base64(value string) {
	a.SetChecksum(SHA256Base64, value)
}

// RMD160 returns the rmd160 digest of the archive.
func (a *Archive) RMD160(ctx context.Context) (string, error) {
	return a.Checksum(ctx, RMD160)
}

// SetRMD160 records a known rmd160 digest.
func (a *Archive) SetRMD160(value string) {
	a.SetChecksum(RMD160, value)
}

// KnownChecksum returns a digest without ever downloading the archive.
func (a *Archive) KnownChecksum(algorithm string) (string, bool) {
	v, ok := a.hashes[algorithm]
	return v, ok
}

// remove deletes the downloaded file and its directory, if any, once.
func (a *Archive) remove() error {
	if a.filepath == "" || a.removed {
		return nil
	}
	a.removed = true
	if err := removeFile(a.filepath); err != nil {
		return &Error{Kind: ErrKindFileAccess, Package: a.filepath, Err: err}
	}
	if a.tempDir != "" {
		if err := removeFile(a.tempDir); err != nil {
			return &Error{Kind: ErrKindFileAccess, Package: a.tempDir, Err: err}
		}
	}
	logrus.Debugf("Removed %s", a.filepath)
	return nil
}

// removeFile is swapped in tests to observe deletions
var removeFile = os.Remove
