// Package ipfs wraps the go-ipfs-api shell with the three calls tpkm
// needs: a liveness probe, content add, and content cat. Errors are
// classified here so callers above see the IPFS kinds from the taxonomy.
package ipfs

import (
	"context"
	"io"
	"strings"

	shell "github.com/ipfs/go-ipfs-api"
	files "github.com/ipfs/go-ipfs-files"
	"github.com/sirupsen/logrus"

	"github.com/tacopkm/tpkm/errutil"
)

var log = logrus.WithField("prefix", "ipfs")

// Client talks to one IPFS HTTP API endpoint.
type Client struct {
	sh     *shell.Shell
	apiURL string
}

// New returns a client for the given API URL. A trailing /api/v0 suffix,
// as carried by the conventional IPFS_API_URL form, is stripped because
// the shell appends it per request.
func New(apiURL string) *Client {
	trimmed := strings.TrimSuffix(strings.TrimSuffix(apiURL, "/"), "/api/v0")
	return &Client{sh: shell.NewShell(trimmed), apiURL: apiURL}
}

// APIURL returns the endpoint this client was built from.
func (c *Client) APIURL() string {
	return c.apiURL
}

// Probe checks the daemon is reachable with a version query. Commands that
// need IPFS treat a failed probe as fatal.
func (c *Client) Probe(ctx context.Context) error {
	var out struct {
		Version string `json:"Version"`
	}
	if err := c.sh.Request("version").Exec(ctx, &out); err != nil {
		return errutil.Wrapf(err, errutil.KindIPFSUnreachable,
			"could not reach IPFS API at %s", c.apiURL).
			WithHint("is the IPFS daemon running? Set IPFS_API_URL if it listens elsewhere")
	}
	log.Debugf("IPFS daemon version %s at %s", out.Version, c.apiURL)
	return nil
}

// Add stores the stream's content, pinned, and returns its CID. The request
// is built by hand so ctx cancellation can abort an in-flight upload.
func (c *Client) Add(ctx context.Context, r io.Reader) (string, error) {
	dir := files.NewSliceDirectory([]files.DirEntry{
		files.FileEntry("", files.NewReaderFile(r)),
	})
	var out struct {
		Hash string `json:"Hash"`
	}
	err := c.sh.Request("add").
		Option("pin", true).
		Body(files.NewMultiFileReader(dir, true)).
		Exec(ctx, &out)
	if err != nil {
		return "", errutil.Wrap(err, errutil.KindIPFSUnreachable, "could not upload content to IPFS")
	}
	if out.Hash == "" {
		return "", errutil.New(errutil.KindUnknown, "IPFS add returned an empty CID")
	}
	return out.Hash, nil
}

// Cat streams the content behind cid. An unresolvable CID surfaces as
// IPFS_NOT_FOUND carrying the offending hash.
func (c *Client) Cat(ctx context.Context, cid string) (io.ReadCloser, error) {
	resp, err := c.sh.Request("cat", cid).Send(ctx)
	if err != nil {
		return nil, errutil.Wrapf(err, errutil.KindIPFSUnreachable, "could not reach IPFS API at %s", c.apiURL)
	}
	if resp.Error != nil {
		defer func() {
			_ = resp.Close()
		}()
		if isNotFound(resp.Error.Error()) {
			return nil, errutil.Wrapf(resp.Error, errutil.KindIPFSNotFound,
				"content %s was not found on the IPFS network", cid)
		}
		return nil, errutil.Wrapf(resp.Error, errutil.KindUnknown, "IPFS cat %s failed", cid)
	}
	return resp.Output, nil
}

func isNotFound(msg string) bool {
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "not found") ||
		strings.Contains(lower, "dag node") ||
		strings.Contains(lower, "no link named")
}
