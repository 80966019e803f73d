// Command mic-replica plays a recorded WAV file against a running debate
// coach, either as a single upload or as a realtime websocket stream.
package main

import (
	"bytes"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

const (
	wavHeaderSize = 44

	// 100ms of 16kHz 16-bit mono audio.
	frameSize   = 3200
	framePeriod = 100 * time.Millisecond
)

var (
	flagServer   string
	flagInsecure bool
	flagRealtime bool
)

var rootCmd = &cobra.Command{
	Use:          "mic-replica",
	Short:        "Send a WAV recording to the debate coach",
	SilenceUsage: true,
}

var uploadCmd = &cobra.Command{
	Use:   "upload <file.wav>",
	Short: "Transcribe a recording through /transcribe_audio",
	Args:  cobra.ExactArgs(1),
	RunE:  runUpload,
}

var postCmd = &cobra.Command{
	Use:   "post <file.wav>",
	Short: "Send a 16kHz mono recording as a chunked body to /stream_audio",
	Args:  cobra.ExactArgs(1),
	RunE:  runPost,
}

var streamCmd = &cobra.Command{
	Use:   "stream <file.wav>",
	Short: "Stream a 16kHz mono recording through /ws/transcribe",
	Args:  cobra.ExactArgs(1),
	RunE:  runStream,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagServer, "server", "https://localhost:5000", "Debate coach base URL")
	rootCmd.PersistentFlags().BoolVar(&flagInsecure, "insecure", true, "Accept self-signed certificates")
	streamCmd.Flags().BoolVar(&flagRealtime, "realtime", true, "Pace frames like a live microphone")
	rootCmd.AddCommand(uploadCmd, postCmd, streamCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func tlsConfig() *tls.Config {
	return &tls.Config{InsecureSkipVerify: flagInsecure}
}

func httpClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: &http.Transport{TLSClientConfig: tlsConfig()},
	}
}

// readPCM strips the canonical WAV header.
func readPCM(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data) <= wavHeaderSize {
		return nil, errors.New("file too short to be a WAV recording")
	}
	return data[wavHeaderSize:], nil
}

func decodeResult(resp *http.Response) (map[string]any, error) {
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("server returned %d: %v", resp.StatusCode, out["error"])
	}
	return out, nil
}

func runUpload(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("audio", filepath.Base(args[0]))
	if err != nil {
		return err
	}
	if _, err := part.Write(data); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	resp, err := httpClient(2*time.Minute).Post(strings.TrimSuffix(flagServer, "/")+"/transcribe_audio", w.FormDataContentType(), &body)
	if err != nil {
		return fmt.Errorf("failed to reach server: %w", err)
	}
	defer resp.Body.Close()

	out, err := decodeResult(resp)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Transcription: %v\n", out["transcription"])
	return nil
}

// runPost streams the recording through a pipe so the request goes out
// chunked, paced like a microphone when --realtime is set.
func runPost(cmd *cobra.Command, args []string) error {
	pcm, err := readPCM(args[0])
	if err != nil {
		return err
	}

	pr, pw := io.Pipe()
	go func() {
		for offset := 0; offset < len(pcm); offset += frameSize {
			end := min(offset+frameSize, len(pcm))
			if _, err := pw.Write(pcm[offset:end]); err != nil {
				return
			}
			if flagRealtime {
				time.Sleep(framePeriod)
			}
		}
		pw.Close()
	}()

	req, err := http.NewRequest(http.MethodPost, strings.TrimSuffix(flagServer, "/")+"/stream_audio", pr)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	fmt.Fprintf(cmd.ErrOrStderr(), "📤 Streaming %d bytes to server...\n", len(pcm))
	start := time.Now()
	resp, err := httpClient(90 * time.Second).Do(req)
	if err != nil {
		pr.CloseWithError(err)
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	out, err := decodeResult(resp)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "⏱️  Request completed in %v\n", time.Since(start))
	fmt.Fprintf(cmd.OutOrStdout(), "Transcription: %v\n", out["transcription"])
	return nil
}

func runStream(cmd *cobra.Command, args []string) error {
	pcm, err := readPCM(args[0])
	if err != nil {
		return err
	}

	wsURL, err := websocketURL(flagServer)
	if err != nil {
		return err
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return err
	}
	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
		TLSClientConfig:  tlsConfig(),
		Jar:              jar,
	}
	conn, _, err := dialer.Dial(wsURL, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to server: %w", err)
	}
	defer conn.Close()

	// Handle incoming messages in a separate goroutine
	done := make(chan error, 1)
	go func() {
		for {
			_, message, err := conn.ReadMessage()
			if err != nil {
				done <- err
				return
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Received: %s\n", message)

			var event struct {
				Type  string `json:"type"`
				Error string `json:"error"`
			}
			if json.Unmarshal(message, &event) == nil {
				switch event.Type {
				case "final":
					done <- nil
					return
				case "error":
					done <- errors.New(event.Error)
					return
				}
			}
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	for offset := 0; offset < len(pcm); offset += frameSize {
		end := min(offset+frameSize, len(pcm))
		if err := conn.WriteMessage(websocket.BinaryMessage, pcm[offset:end]); err != nil {
			return fmt.Errorf("sending audio: %w", err)
		}
		if !flagRealtime {
			continue
		}
		select {
		case <-time.After(framePeriod):
		case <-sigChan:
			fmt.Fprintln(cmd.ErrOrStderr(), "Interrupted, finishing utterance...")
			offset = len(pcm)
		case err := <-done:
			return err
		}
	}
	if err := conn.WriteMessage(websocket.TextMessage, []byte("stop")); err != nil {
		return fmt.Errorf("sending stop: %w", err)
	}

	select {
	case err := <-done:
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		return nil
	case <-time.After(30 * time.Second):
		return errors.New("no final transcript within 30s")
	}
}

func websocketURL(base string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws/transcribe"
	return u.String(), nil
}
