package rest_test

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	apiartifacts "github.com/modelyard/modelyard-api-types/artifacts"
	kprof "github.com/modelyard/modelyard/cmd/yard/config/profiles"
	krst "github.com/modelyard/modelyard/cmd/yard/rest"
	"github.com/modelyard/modelyard/pkg/utils/try"
)

func TestPushArtifact(t *testing.T) {

	type TarEntry struct {
		Header  *tar.Header
		Content []byte
	}

	t.Run("when `PushArtifact` is completed, it returns the artifact ref in response", func(t *testing.T) {
		response := apiartifacts.Ref{
			Digest: "sha256:0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef",
			Name:   "model",
			Size:   1234,
		}

		gotContent := map[string]TarEntry{}
		var gotAuth, gotName, gotPath string

		h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				t.Error("unexpected http method")
			}
			if r.Header.Get("Content-Type") != "application/tar+gzip" {
				t.Error("unmatch header Content-Type.")
			}
			gotAuth = r.Header.Get("Authorization")
			gotName = r.URL.Query().Get("name")
			gotPath = r.URL.Path
			defer r.Body.Close()

			gzreader := try.To(gzip.NewReader(r.Body)).OrFatal(t)
			defer gzreader.Close()
			tarreader := tar.NewReader(gzreader)
			for {
				h, err := tarreader.Next()
				if errors.Is(err, io.EOF) {
					break
				} else if err != nil {
					t.Fatal(err)
				}
				content := try.To(io.ReadAll(tarreader)).OrFatal(t)
				gotContent[h.Name] = TarEntry{Header: h, Content: content}
			}

			w.WriteHeader(http.StatusCreated)
			m := try.To(json.Marshal(response)).OrFatal(t)
			w.Write(m)
		})

		ts := httptest.NewServer(h)
		defer ts.Close()

		profile := kprof.YardProfile{ApiRoot: ts.URL, Token: "token-1.supersecret"}
		testee := try.To(krst.NewClient(&profile)).OrFatal(t)

		root := t.TempDir()
		files := map[string][]byte{
			"weights.bin": []byte("layer-0 layer-1"),
			"meta.json":   []byte(`{"kind":"linear"}`),
		}
		for name, content := range files {
			if err := os.WriteFile(filepath.Join(root, name), content, 0644); err != nil {
				t.Fatal(err)
			}
		}

		prog := testee.PushArtifact(context.Background(), "run-1", root, "model")
		<-prog.Done()
		if err := prog.Error(); err != nil {
			t.Fatalf("unexpected result. error occured: %s", err)
		}
		gotResponse, ok := prog.Result()
		if !ok {
			t.Fatalf("unexpected result. it not failed: %s", prog.Error())
		}
		if !gotResponse.Equal(response) {
			t.Errorf("unexpected response: %v", gotResponse)
		}

		if gotPath != "/runs/run-1/artifacts" {
			t.Errorf("unexpected path: %s", gotPath)
		}
		if gotAuth != "Bearer token-1.supersecret" {
			t.Errorf("unexpected Authorization header: %s", gotAuth)
		}
		if gotName != "model" {
			t.Errorf("unexpected name query: %s", gotName)
		}

		for name, wantContent := range files {
			got, ok := gotContent[name]
			if !ok {
				t.Errorf("file not sent: %s", name)
				continue
			}
			if !bytes.Equal(wantContent, got.Content) {
				t.Errorf("unexpected file content: %s", name)
			}
		}
	})

	t.Run("it fails to `PushArtifact` when an invalid url is given.", func(t *testing.T) {
		profile := kprof.YardProfile{ApiRoot: "http://test.invalid"}
		ci := try.To(krst.NewClient(&profile)).OrFatal(t)

		tmp := t.TempDir()
		content := make([]byte, 256)
		rand.Read(content)
		if err := os.WriteFile(filepath.Join(tmp, "pushartifact"), content, 0644); err != nil {
			t.Fatal(err)
		}

		prog := ci.PushArtifact(context.Background(), "run-1", tmp, "")
		<-prog.Done()
		if err := prog.Error(); err == nil {
			t.Error("unexpected result. an error should be occured.")
		}
		if !errors.Is(prog.Error(), krst.ErrServerUnreachable) {
			t.Errorf("unexpected error: %v (ErrServerUnreachable is expected)", prog.Error())
		}
		_, ok := prog.Result()
		if ok {
			t.Error("unexpected result. channel is not closed.")
		}
	})

	t.Run("it fails to `PushArtifact`, when it is received a response with status code 500.", func(t *testing.T) {
		serverError := "internal server error. unexpected error occured!!!!"
		h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				t.Error("unexpected http method")
			}
			io.Copy(io.Discard, r.Body)
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(serverError))
		})
		ts := httptest.NewServer(h)
		defer ts.Close()

		profile := kprof.YardProfile{ApiRoot: ts.URL}
		ci := try.To(krst.NewClient(&profile)).OrFatal(t)

		tmp := t.TempDir()
		content := make([]byte, 256)
		rand.Read(content)
		if err := os.WriteFile(filepath.Join(tmp, "pushartifact"), content, 0644); err != nil {
			t.Fatal(err)
		}

		prog := ci.PushArtifact(context.Background(), "run-1", tmp, "")
		<-prog.Done()
		if err := prog.Error(); err == nil {
			t.Error("unexpected result. an error should be occured.")
		}
		_, ok := prog.Result()
		if ok {
			t.Error("unexpected result. channel is not closed.")
		}
	})

	t.Run("it fails to `PushArtifact`, when it tries to send unexisting path", func(t *testing.T) {
		h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Errorf("request should not be sent.")
		})
		ts := httptest.NewServer(h)
		defer ts.Close()

		profile := kprof.YardProfile{ApiRoot: ts.URL}
		ci := try.To(krst.NewClient(&profile)).OrFatal(t)

		prog := ci.PushArtifact(
			context.Background(), "run-1",
			filepath.Join(t.TempDir(), "no-such-path"), "",
		)
		<-prog.Done()
		if err := prog.Error(); err == nil {
			t.Error("unexpected result. an error should be occured.")
		}
		_, ok := prog.Result()
		if ok {
			t.Error("unexpected result. it is not failed")
		}
	})
}

func digestOf(blob []byte) string {
	sum := sha256.Sum256(blob)
	return apiartifacts.DigestPrefix + hex.EncodeToString(sum[:])
}

func TestPullArtifact(t *testing.T) {

	t.Run("when the stream hashes to the digest, it passes the stream to handler", func(t *testing.T) {
		blob := make([]byte, 1024)
		rand.Read(blob)
		digest := digestOf(blob)

		h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				t.Error("unexpected http method")
			}
			if r.URL.Path != "/artifacts/"+digest {
				t.Errorf("unexpected path: %s", r.URL.Path)
			}
			w.Header().Set("Content-Type", "application/octet-stream")
			w.Header().Set("X-Modelyard-Digest", digest)
			w.Write(blob)
		})
		ts := httptest.NewServer(h)
		defer ts.Close()

		profile := kprof.YardProfile{ApiRoot: ts.URL}
		testee := try.To(krst.NewClient(&profile)).OrFatal(t)

		got := new(bytes.Buffer)
		err := testee.PullArtifact(context.Background(), digest, func(r io.Reader) error {
			_, err := io.Copy(got, r)
			return err
		})
		if err != nil {
			t.Fatalf("unexpected error: %s", err)
		}
		if !bytes.Equal(got.Bytes(), blob) {
			t.Error("downloaded content unmatch")
		}
	})

	t.Run("when the stream does not hash to the digest, it returns ErrChecksumUnmatch", func(t *testing.T) {
		blob := make([]byte, 1024)
		rand.Read(blob)
		digest := digestOf(blob)

		h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/octet-stream")
			w.Write(blob[:512])
			w.Write([]byte("corrupted tail of the artifact..."))
		})
		ts := httptest.NewServer(h)
		defer ts.Close()

		profile := kprof.YardProfile{ApiRoot: ts.URL}
		testee := try.To(krst.NewClient(&profile)).OrFatal(t)

		err := testee.PullArtifact(context.Background(), digest, func(r io.Reader) error {
			_, err := io.Copy(io.Discard, r)
			return err
		})
		if !errors.Is(err, krst.ErrChecksumUnmatch) {
			t.Errorf("unexpected error: %v (ErrChecksumUnmatch is expected)", err)
		}
	})

	t.Run("when the artifact is not found, it returns error", func(t *testing.T) {
		h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"message": {"reason": "no such artifact"}}`))
		})
		ts := httptest.NewServer(h)
		defer ts.Close()

		profile := kprof.YardProfile{ApiRoot: ts.URL}
		testee := try.To(krst.NewClient(&profile)).OrFatal(t)

		err := testee.PullArtifact(
			context.Background(),
			"sha256:0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef",
			func(r io.Reader) error {
				t.Error("handler should not be called")
				return nil
			},
		)
		if err == nil {
			t.Error("unexpected result. an error should be occured.")
		}
	})
}

func TestExtractArtifact(t *testing.T) {

	t.Run("it walks each file in the artifact", func(t *testing.T) {
		files := map[string][]byte{
			"model/weights.bin": []byte("layer-0 layer-1"),
			"model/meta.json":   []byte(`{"kind":"linear"}`),
		}

		archived := new(bytes.Buffer)
		gzw := gzip.NewWriter(archived)
		tarw := tar.NewWriter(gzw)
		for name, content := range files {
			hdr := &tar.Header{Name: name, Mode: 0644, Size: int64(len(content))}
			if err := tarw.WriteHeader(hdr); err != nil {
				t.Fatal(err)
			}
			if _, err := tarw.Write(content); err != nil {
				t.Fatal(err)
			}
		}
		tarw.Close()
		gzw.Close()

		blob := archived.Bytes()
		digest := digestOf(blob)

		h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/octet-stream")
			w.Write(blob)
		})
		ts := httptest.NewServer(h)
		defer ts.Close()

		profile := kprof.YardProfile{ApiRoot: ts.URL}
		testee := try.To(krst.NewClient(&profile)).OrFatal(t)

		got := map[string][]byte{}
		err := testee.ExtractArtifact(context.Background(), digest, func(fe krst.FileEntry) error {
			content, err := io.ReadAll(fe.Body)
			if err != nil {
				return err
			}
			got[fe.Header.Name] = content
			return nil
		})
		if err != nil {
			t.Fatalf("unexpected error: %s", err)
		}

		for name, wantContent := range files {
			gotContent, ok := got[name]
			if !ok {
				t.Errorf("file not extracted: %s", name)
				continue
			}
			if !bytes.Equal(wantContent, gotContent) {
				t.Errorf("unexpected file content: %s", name)
			}
		}
	})
}
