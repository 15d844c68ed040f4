// Package host implements the browser native messaging transport: each
// message is a 32-bit little-endian length followed by UTF-8 JSON.
package host

import (
	"bufio"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/neilberkman/researchtrail/internal/core/protocol"
)

// MaxMessageSize caps frames in both directions. Browsers reject
// host-to-extension messages above 1 MiB.
const MaxMessageSize = 1 << 20

// ErrMessageTooLarge is returned for frames above MaxMessageSize
var ErrMessageTooLarge = errors.New("message exceeds size limit")

// ReadMessage reads one frame. It returns io.EOF when the stream ends
// cleanly between frames. Oversized frames are skipped so the stream
// stays aligned, and ErrMessageTooLarge is returned.
func ReadMessage(r io.Reader) ([]byte, error) {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	size := binary.LittleEndian.Uint32(header[:])
	if size > MaxMessageSize {
		if _, err := io.CopyN(io.Discard, r, int64(size)); err != nil {
			return nil, fmt.Errorf("skip oversized message: %w", err)
		}
		return nil, fmt.Errorf("%w: %d bytes", ErrMessageTooLarge, size)
	}

	body := make([]byte, size)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

// WriteMessage encodes v as JSON and writes it as one frame
func WriteMessage(w io.Writer, v interface{}) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	if len(payload) > MaxMessageSize {
		return fmt.Errorf("%w: %d bytes", ErrMessageTooLarge, len(payload))
	}

	var header [4]byte
	binary.LittleEndian.PutUint32(header[:], uint32(len(payload)))
	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("write body: %w", err)
	}
	return nil
}

// Dispatcher turns one request into one response
type Dispatcher interface {
	Dispatch(ctx context.Context, data []byte) protocol.Response
}

// Host serves native messaging requests from in, replying on out.
// Messages are handled in arrival order.
type Host struct {
	in         io.Reader
	out        *bufio.Writer
	mu         sync.Mutex
	dispatcher Dispatcher
}

// New creates a host. out must be the browser channel only; logs go elsewhere.
func New(in io.Reader, out io.Writer, dispatcher Dispatcher) *Host {
	return &Host{
		in:         bufio.NewReader(in),
		out:        bufio.NewWriter(out),
		dispatcher: dispatcher,
	}
}

// Run reads until the browser closes the stream or ctx is cancelled
func (h *Host) Run(ctx context.Context) error {
	log.Println("native messaging host ready")

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		data, err := ReadMessage(h.in)
		switch {
		case errors.Is(err, io.EOF):
			log.Println("browser closed the connection")
			return nil
		case errors.Is(err, ErrMessageTooLarge):
			log.Printf("rejecting message: %v", err)
			if werr := h.reply(protocol.Response{
				OK:    false,
				Error: err.Error(),
				Kind:  protocol.KindInvalidRequest,
			}); werr != nil {
				return werr
			}
			continue
		case err != nil:
			return err
		}

		resp := h.dispatcher.Dispatch(ctx, data)
		if !resp.OK {
			log.Printf("request failed (%s): %s", resp.Kind, resp.Error)
		}
		if err := h.reply(resp); err != nil {
			return err
		}
	}
}

// reply writes and flushes one response. A response too large for the
// browser is replaced by a failure carrying the same request id.
func (h *Host) reply(resp protocol.Response) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	err := WriteMessage(h.out, resp)
	if errors.Is(err, ErrMessageTooLarge) {
		log.Printf("response too large for request %q", resp.RequestID)
		err = WriteMessage(h.out, protocol.Response{
			RequestID: resp.RequestID,
			OK:        false,
			Error:     err.Error(),
			Kind:      protocol.KindInternal,
		})
	}
	if err != nil {
		return err
	}
	return h.out.Flush()
}
