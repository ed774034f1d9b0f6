package chat

import (
	"bufio"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func Test_validateName(t *testing.T) {
	assert.NoError(t, validateName("alice"))
	assert.NoError(t, validateName("bob99"))
	assert.Error(t, validateName(""))
	assert.Error(t, validateName("not valid"))
	assert.Error(t, validateName("semi;colon"))
}

type testClient struct {
	conn   net.Conn
	reader *bufio.Reader
}

func connect(t *testing.T, s *Server) *testClient {
	t.Helper()
	client, server := net.Pipe()
	require.NoError(t, client.SetDeadline(time.Now().Add(5*time.Second)))
	go s.handle(server)
	t.Cleanup(func() { client.Close() })
	return &testClient{conn: client, reader: bufio.NewReader(client)}
}

func (c *testClient) readLine(t *testing.T) string {
	t.Helper()
	line, err := c.reader.ReadString('\n')
	require.NoError(t, err)
	return line[:len(line)-1]
}

func (c *testClient) writeLine(t *testing.T, line string) {
	t.Helper()
	_, err := fmt.Fprintln(c.conn, line)
	require.NoError(t, err)
}

func TestServer_Room(t *testing.T) {
	s := NewServer(DefaultNamePrompt, zap.NewNop())

	alice := connect(t, s)
	assert.Equal(t, DefaultNamePrompt, alice.readLine(t))
	alice.writeLine(t, "alice")
	assert.Equal(t, "* The room contains: ", alice.readLine(t))

	bob := connect(t, s)
	assert.Equal(t, DefaultNamePrompt, bob.readLine(t))
	bob.writeLine(t, "bob")
	assert.Equal(t, "* bob has entered the room", alice.readLine(t))
	assert.Equal(t, "* The room contains: alice", bob.readLine(t))

	bob.writeLine(t, "hello")
	assert.Equal(t, "[bob] hello", alice.readLine(t))

	require.NoError(t, alice.conn.Close())
	assert.Equal(t, "* alice has left the room", bob.readLine(t))
}

func TestServer_RejectsInvalidName(t *testing.T) {
	s := NewServer(DefaultNamePrompt, zap.NewNop())

	c := connect(t, s)
	c.readLine(t)
	c.writeLine(t, "not a name")
	assert.Contains(t, c.readLine(t), "Error:")
}

func TestServer_RejectsDuplicateName(t *testing.T) {
	s := NewServer(DefaultNamePrompt, zap.NewNop())

	alice := connect(t, s)
	alice.readLine(t)
	alice.writeLine(t, "alice")
	alice.readLine(t)

	imposter := connect(t, s)
	imposter.readLine(t)
	imposter.writeLine(t, "alice")
	assert.Contains(t, imposter.readLine(t), "Error:")
}
