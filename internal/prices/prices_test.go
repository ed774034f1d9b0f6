package prices

import (
	"encoding/binary"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestStore_Mean(t *testing.T) {
	s := newStore()
	s.insert(12345, 101)
	s.insert(12346, 102)
	s.insert(12347, 100)
	s.insert(40960, 5)

	tests := []struct {
		name             string
		mintime, maxtime int32
		expected         int32
	}{
		{name: "subset", mintime: 12288, maxtime: 16384, expected: 101},
		{name: "everything", mintime: 0, maxtime: 1 << 30, expected: 77},
		{name: "empty range", mintime: 20000, maxtime: 30000, expected: 0},
		{name: "inverted range", mintime: 16384, maxtime: 12288, expected: 0},
		{name: "single timestamp", mintime: 40960, maxtime: 40960, expected: 5},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.expected, s.mean(test.mintime, test.maxtime))
		})
	}
}

func TestStore_NegativePrices(t *testing.T) {
	s := newStore()
	s.insert(1, -10)
	s.insert(2, -20)
	assert.Equal(t, int32(-15), s.mean(0, 10))
}

func TestStore_DuplicateTimestampReplaces(t *testing.T) {
	s := newStore()
	s.insert(1, 100)
	s.insert(1, 200)
	assert.Equal(t, int32(200), s.mean(1, 1))
}

func frame(kind byte, a, b int32) []byte {
	buf := []byte{kind}
	buf = binary.BigEndian.AppendUint32(buf, uint32(a))
	return binary.BigEndian.AppendUint32(buf, uint32(b))
}

func TestServer_Session(t *testing.T) {
	server := NewServer(zap.NewNop())
	client, conn := net.Pipe()
	go server.handle(conn)
	defer client.Close()

	for _, f := range [][]byte{
		frame('I', 12345, 101),
		frame('I', 12346, 102),
		frame('I', 12347, 100),
		frame('I', 40960, 5),
		frame('Q', 12288, 16384),
	} {
		_, err := client.Write(f)
		require.NoError(t, err)
	}

	require.NoError(t, client.SetReadDeadline(time.Now().Add(2*time.Second)))
	var mean int32
	require.NoError(t, binary.Read(client, binary.BigEndian, &mean))
	assert.Equal(t, int32(101), mean)
}
