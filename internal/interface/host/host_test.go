package host

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/neilberkman/researchtrail/internal/core/capture"
	"github.com/neilberkman/researchtrail/internal/core/db"
	"github.com/neilberkman/researchtrail/internal/core/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func frame(payload string) []byte {
	var buf bytes.Buffer
	_ = binary.Write(&buf, binary.LittleEndian, uint32(len(payload)))
	buf.WriteString(payload)
	return buf.Bytes()
}

func readResponses(t *testing.T, r io.Reader) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	for {
		data, err := ReadMessage(r)
		if errors.Is(err, io.EOF) {
			return out
		}
		require.NoError(t, err)
		var m map[string]interface{}
		require.NoError(t, json.Unmarshal(data, &m))
		out = append(out, m)
	}
}

func TestReadWriteMessage(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteMessage(&buf, map[string]string{"type": "ping"}))

	raw := buf.Bytes()
	assert.Equal(t, uint32(len(raw)-4), binary.LittleEndian.Uint32(raw[:4]))

	data, err := ReadMessage(&buf)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"ping"}`, string(data))

	_, err = ReadMessage(&buf)
	assert.Equal(t, io.EOF, err)
}

func TestReadMessage_Truncated(t *testing.T) {
	data := frame(`{"type":"stopSession"}`)

	_, err := ReadMessage(bytes.NewReader(data[:len(data)-3]))
	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))

	_, err = ReadMessage(bytes.NewReader(data[:2]))
	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))
}

func TestReadMessage_TooLarge(t *testing.T) {
	big := strings.Repeat("x", MaxMessageSize+1)
	stream := append(frame(big), frame(`{"type":"next"}`)...)
	r := bytes.NewReader(stream)

	_, err := ReadMessage(r)
	assert.True(t, errors.Is(err, ErrMessageTooLarge))

	// The stream stays aligned on the next frame
	data, err := ReadMessage(r)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"next"}`, string(data))
}

func TestWriteMessage_TooLarge(t *testing.T) {
	var buf bytes.Buffer
	err := WriteMessage(&buf, strings.Repeat("x", MaxMessageSize))
	assert.True(t, errors.Is(err, ErrMessageTooLarge))
	assert.Zero(t, buf.Len())
}

type echoDispatcher struct {
	seen []string
}

func (d *echoDispatcher) Dispatch(ctx context.Context, data []byte) protocol.Response {
	d.seen = append(d.seen, string(data))
	return protocol.Success(map[string]interface{}{"echo": string(data)})
}

func TestHost_RunInOrder(t *testing.T) {
	var in bytes.Buffer
	in.Write(frame(`"one"`))
	in.Write(frame(`"two"`))
	in.Write(frame(`"three"`))

	var out bytes.Buffer
	d := &echoDispatcher{}
	require.NoError(t, New(&in, &out, d).Run(context.Background()))

	responses := readResponses(t, &out)
	require.Len(t, responses, 3)
	assert.Equal(t, `"one"`, responses[0]["echo"])
	assert.Equal(t, `"three"`, responses[2]["echo"])
	assert.Equal(t, []string{`"one"`, `"two"`, `"three"`}, d.seen)
}

func TestHost_OversizedRequestGetsResponse(t *testing.T) {
	var in bytes.Buffer
	in.Write(frame(strings.Repeat(" ", MaxMessageSize+10)))
	in.Write(frame(`"after"`))

	var out bytes.Buffer
	require.NoError(t, New(&in, &out, &echoDispatcher{}).Run(context.Background()))

	responses := readResponses(t, &out)
	require.Len(t, responses, 2)
	assert.Equal(t, false, responses[0]["ok"])
	assert.Equal(t, protocol.KindInvalidRequest, responses[0]["kind"])
	assert.Equal(t, `"after"`, responses[1]["echo"])
}

type bigDispatcher struct{}

func (bigDispatcher) Dispatch(ctx context.Context, data []byte) protocol.Response {
	resp := protocol.Success(map[string]interface{}{"blob": strings.Repeat("x", MaxMessageSize)})
	resp.RequestID = "big"
	return resp
}

func TestHost_OversizedResponse(t *testing.T) {
	var in, out bytes.Buffer
	in.Write(frame(`{}`))

	require.NoError(t, New(&in, &out, bigDispatcher{}).Run(context.Background()))

	responses := readResponses(t, &out)
	require.Len(t, responses, 1)
	assert.Equal(t, false, responses[0]["ok"])
	assert.Equal(t, "big", responses[0]["requestId"])
}

func TestHost_TruncatedStream(t *testing.T) {
	in := bytes.NewReader(frame(`{"type":"stopSession"}`)[:6])
	var out bytes.Buffer

	err := New(in, &out, &echoDispatcher{}).Run(context.Background())
	assert.Error(t, err)
}

func TestHost_WithRouter(t *testing.T) {
	database, err := db.New(filepath.Join(t.TempDir(), "trail.db"))
	require.NoError(t, err)
	defer func() { _ = database.Close() }()

	engine := capture.New(database, nil)
	defer engine.Close()

	var in bytes.Buffer
	in.Write(frame(`{"type":"startSession","topicName":"Native","requestId":"1"}`))
	in.Write(frame(`{"type":"navigationCommitted","url":"https://a.example","tabId":1,"frameId":0,"requestId":"2"}`))
	in.Write(frame(`{"type":"bogus","requestId":"3"}`))
	in.Write(frame(`{"type":"getCurrentSession","requestId":"4"}`))

	var out bytes.Buffer
	require.NoError(t, New(&in, &out, protocol.NewRouter(engine)).Run(context.Background()))

	responses := readResponses(t, &out)
	require.Len(t, responses, 4)
	for i, r := range responses {
		assert.Equal(t, string(rune('1'+i)), r["requestId"])
	}
	assert.Equal(t, true, responses[1]["recorded"])
	assert.Equal(t, protocol.KindUnknownOperation, responses[2]["kind"])

	current := responses[3]["currentSession"].(map[string]interface{})
	assert.Equal(t, "Native", current["topicName"])
	assert.Len(t, current["pages"], 1)
}
