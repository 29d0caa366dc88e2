package rest

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"

	apiartifacts "github.com/modelyard/modelyard-api-types/artifacts"
	"github.com/modelyard/modelyard/pkg/utils/archive"
	kio "github.com/modelyard/modelyard/pkg/utils/io"
)

// ErrChecksumUnmatch means a downloaded artifact does not hash to its digest.
var ErrChecksumUnmatch = errors.New("checksum unmatch")

type Progress[T any] interface {
	// EstimatedTotalSize returns the total size of files to be archived.
	//
	// This is estimated and not compressed size.
	EstimatedTotalSize() int64

	// ProgressedSize returns the size of archived files.
	//
	// This size is updated during archiving.
	//
	// This is raw (not compressed) size.
	ProgressedSize() int64

	// ProgressingFile returns the file name which is currently being archived.
	ProgressingFile() string

	// Error returns error caused during archiving.
	Error() error

	// Result returns the result of the operation.
	//
	// # Returns
	//
	// - T: the result of the operation.
	//
	// - bool: true if the operation has been done.
	Result() (T, bool)

	// Done returns a channel which is closed when progressing task is over.
	Done() <-chan struct{}

	// Sent returns a channel which is closed when the data is sent to the server.
	Sent() <-chan struct{}
}

type progress struct {
	p        archive.Progress
	e        error
	result   *apiartifacts.Ref
	resultOk bool
	done     chan struct{}
	sent     chan struct{}
}

func (p *progress) EstimatedTotalSize() int64 {
	return p.p.EstimatedTotalSize()
}

func (p *progress) ProgressedSize() int64 {
	return p.p.ProgressedSize()
}

func (p *progress) ProgressingFile() string {
	return p.p.ProgressingFile()
}

func (p *progress) Error() error {
	if err := p.p.Error(); err != nil {
		return err
	}
	return p.e
}

func (p *progress) Result() (*apiartifacts.Ref, bool) {
	return p.result, p.resultOk
}

func (p *progress) Done() <-chan struct{} {
	return p.done
}

func (p *progress) Sent() <-chan struct{} {
	return p.sent
}

func (c *client) PushArtifact(ctx context.Context, runId string, source string, name string) Progress[*apiartifacts.Ref] {
	ctx, cancel := context.WithCancel(ctx)

	started := false
	r, w := io.Pipe()
	defer func() {
		if !started {
			r.Close()
			w.Close()
		}
	}()

	prog := &progress{
		sent: make(chan struct{}, 1),
		done: make(chan struct{}, 1),
		p:    archive.GoTarGz(ctx, source, w),
	}

	treader := kio.NewTriggerReader(r)
	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, c.apipath("runs", runId, "artifacts"), treader,
	)
	if err != nil {
		cancel()
		prog.e = err
		return prog
	}
	treader.OnEnd(func() {
		close(prog.sent)
	})

	if name != "" {
		q := req.URL.Query()
		q.Add("name", name)
		req.URL.RawQuery = q.Encode()
	}
	req.Header.Add("Content-Type", "application/tar+gzip")
	req.Header.Add("Transfer-Encoding", "chunked")

	go func() {
		<-prog.p.Done()
		if err := prog.p.Error(); err != nil {
			cancel()
		}
		w.Close()
	}()

	started = true
	go func() {
		defer close(prog.done)
		defer r.Close()

		// send the archive to api/runs/{runId}/artifacts.
		// The server hashes the stream and answers with the digest.
		resp, err := c.do(req)
		if err != nil {
			prog.e = err
			return
		}
		defer resp.Body.Close()

		res := &apiartifacts.Ref{}
		if err := unmarshalJsonResponse(
			resp, res,
			MessageFor{
				Status4xx: fmt.Sprintf("sending artifact is rejected by server (status code = %d)", resp.StatusCode),
				Status5xx: fmt.Sprintf("server error (status code = %d)", resp.StatusCode),
			},
		); err != nil {
			prog.e = err
			return
		}

		prog.result = res
		prog.resultOk = true
	}()

	return prog
}

func (c *client) ListRunArtifacts(ctx context.Context, runId string) ([]apiartifacts.Ref, error) {
	req, err := http.NewRequestWithContext(
		ctx, http.MethodGet, c.apipath("runs", runId, "artifacts"), nil,
	)
	if err != nil {
		return nil, err
	}

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	refs := make([]apiartifacts.Ref, 0, 5)
	if err := unmarshalJsonResponse(
		resp, &refs,
		MessageFor{
			Status4xx: fmt.Sprintf("runId:%v is not found", runId),
			Status5xx: fmt.Sprintf("server error (status code = %d)", resp.StatusCode),
		},
	); err != nil {
		return nil, err
	}
	return refs, nil
}

func (c *client) PullArtifact(ctx context.Context, digest string, handler func(io.Reader) error) error {
	req, err := http.NewRequestWithContext(
		ctx, http.MethodGet, c.apipath("artifacts", digest), nil,
	)
	if err != nil {
		return err
	}

	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	r, err := unmarshalStreamResponse(
		resp,
		MessageFor{
			Status4xx: fmt.Sprintf("artifact %s is not found", digest),
			Status5xx: fmt.Sprintf("server error (status code = %d)", resp.StatusCode),
		},
	)
	if err != nil {
		return err
	}

	chr := kio.NewSHA256Reader(r)
	tr := kio.NewTriggerReader(chr)
	var hasherr error
	tr.OnEnd(func() {
		actual := apiartifacts.DigestPrefix + hex.EncodeToString(chr.Sum())
		if actual != digest {
			hasherr = fmt.Errorf(
				"%w: %s is calcurated as %s", ErrChecksumUnmatch, digest, actual,
			)
		}
	})

	if err := handler(tr); err != nil {
		return err
	}
	if _, err := io.Copy(io.Discard, tr); err != nil {
		// drain rest of the stream, so the hash covers the whole blob.
		return err
	}

	return hasherr
}

type FileEntry struct {
	// Header is the header of the entry.
	Header tar.Header

	// Content of file.
	Body io.Reader
}

// download artifact and walk it as tar.gz
func (c *client) ExtractArtifact(ctx context.Context, digest string, handler func(FileEntry) error) error {
	return c.PullArtifact(ctx, digest, func(r io.Reader) error {
		gzr, err := gzip.NewReader(r)
		if err != nil {
			return err
		}
		defer gzr.Close()

		tarr := tar.NewReader(gzr)
		for {
			hdr, err := tarr.Next()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				return err
			}
			if err := handler(FileEntry{Header: *hdr, Body: tarr}); err != nil {
				return err
			}

			// drain rest of the entry.
			if _, err := io.Copy(io.Discard, tarr); err != nil {
				return err
			}
		}
		return nil
	})
}
