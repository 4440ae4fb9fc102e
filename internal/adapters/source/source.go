package source

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/bft-labs/bulkload/internal/domain"
	"github.com/bft-labs/bulkload/internal/ports"
)

// Input formats accepted by Open.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
)

// Open returns a record source for location, an ftp:// URL or a local file
// path, decoding format.
func Open(location, format string, ftpCfg FTPConfig, workers int, logger ports.Logger) (ports.RecordSource, error) {
	name, opener := location, fileOpener(location)
	if strings.HasPrefix(location, "ftp://") {
		o, err := FTPOpener(location, ftpCfg, logger)
		if err != nil {
			return nil, err
		}
		name, opener = RedactLocation(location), o
	}

	switch format {
	case FormatCSV, "":
		return NewCSVSource(name, opener, workers, logger), nil
	case FormatJSON:
		return NewJSONSource(name, opener, workers, logger), nil
	default:
		return nil, fmt.Errorf("%w: unsupported input format %q", domain.ErrInvalidConfig, format)
	}
}

func fileOpener(path string) Opener {
	return func(context.Context) (io.ReadCloser, error) {
		return os.Open(path)
	}
}

// RedactLocation masks the password of an ftp:// URL for logs.
// Anything that does not parse is returned unchanged.
func RedactLocation(location string) string {
	u, err := url.Parse(location)
	if err != nil {
		return location
	}
	return u.Redacted()
}
