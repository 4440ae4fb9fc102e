package source

import (
	"bytes"
	"context"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/jlaffaye/ftp"
	"github.com/pkg/errors"

	"github.com/bft-labs/bulkload/internal/ports"
)

// FTPConfig holds FTP connection parameters. Values embedded in an
// ftp:// location take precedence.
type FTPConfig struct {
	Addr     string
	User     string
	Password string
	Timeout  time.Duration
}

// ftpLocation is a parsed ftp:// URL.
type ftpLocation struct {
	addr     string
	user     string
	password string
	path     string
}

func parseFTPLocation(location string, cfg FTPConfig) (ftpLocation, error) {
	u, err := url.Parse(location)
	if err != nil {
		return ftpLocation{}, errors.Wrap(err, "parse ftp location")
	}
	if u.Scheme != "ftp" {
		return ftpLocation{}, errors.Errorf("not an ftp location: %s", location)
	}

	loc := ftpLocation{
		addr:     cfg.Addr,
		user:     cfg.User,
		password: cfg.Password,
		path:     u.Path,
	}
	if u.Host != "" {
		loc.addr = u.Host
	}
	if loc.addr != "" && !strings.Contains(loc.addr, ":") {
		loc.addr += ":21"
	}
	if u.User != nil {
		loc.user = u.User.Username()
		if p, ok := u.User.Password(); ok {
			loc.password = p
		}
	}
	if loc.user == "" {
		loc.user = "anonymous"
		loc.password = "anonymous"
	}
	if loc.addr == "" || loc.path == "" {
		return ftpLocation{}, errors.Errorf("ftp location needs a host and a path: %s", location)
	}
	return loc, nil
}

// FTPOpener returns an Opener that downloads the file at location.
func FTPOpener(location string, cfg FTPConfig, logger ports.Logger) (Opener, error) {
	loc, err := parseFTPLocation(location, cfg)
	if err != nil {
		return nil, err
	}

	return func(ctx context.Context) (io.ReadCloser, error) {
		opts := []ftp.DialOption{ftp.DialWithContext(ctx)}
		if cfg.Timeout > 0 {
			opts = append(opts, ftp.DialWithTimeout(cfg.Timeout))
		}

		c, err := ftp.Dial(loc.addr, opts...)
		if err != nil {
			return nil, errors.Wrapf(err, "dial %s", loc.addr)
		}
		defer c.Quit()

		if err := c.Login(loc.user, loc.password); err != nil {
			return nil, errors.Wrap(err, "ftp login")
		}

		resp, err := c.Retr(loc.path)
		if err != nil {
			return nil, errors.Wrapf(err, "retrieve %s", loc.path)
		}
		// The connection is closed on return, so read the whole file first.
		data, err := io.ReadAll(resp)
		resp.Close()
		if err != nil {
			return nil, errors.Wrapf(err, "read %s", loc.path)
		}

		logger.Debug("ftp download complete",
			ports.String("addr", loc.addr),
			ports.String("path", loc.path),
			ports.Int("bytes", len(data)),
		)
		return io.NopCloser(bytes.NewReader(data)), nil
	}, nil
}
