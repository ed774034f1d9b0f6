// Package prime implements the line-based prime checker. Each request is a
// single line containing a JSON object, terminated by a newline, and each
// request is answered in order. A malformed request gets a single malformed
// response, after which the connection is closed.
package prime

import (
	"bufio"
	"encoding/json"
	"errors"
	"math"
	"net"

	"go.uber.org/zap"
)

type Request struct {
	// Method must always contain "isPrime".
	Method *string `json:"method"`
	// Number is any valid JSON number, including floating-point values.
	Number *float64 `json:"number"`
}

type Response struct {
	Method string `json:"method"`
	Prime  bool   `json:"prime"`
}

type malformedResponse struct {
	Method string `json:"method"`
}

type Server struct {
	log *zap.Logger
}

func NewServer(log *zap.Logger) *Server {
	return &Server{log: log}
}

func (s *Server) Serve(listener net.Listener) error {
	for {
		conn, err := listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.log.Warn("accept failed", zap.Error(err))
			continue
		}
		go s.handle(conn)
	}
}

func (s *Server) handle(conn net.Conn) {
	defer conn.Close()
	log := s.log.With(zap.String("remote_addr", conn.RemoteAddr().String()))

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		response, ok := respond(scanner.Bytes())
		if _, err := conn.Write(append(response, '\n')); err != nil {
			log.Warn("write failed", zap.Error(err))
			return
		}
		if !ok {
			log.Info("malformed request", zap.String("line", scanner.Text()))
			return
		}
	}
	if err := scanner.Err(); err != nil {
		log.Warn("read failed", zap.Error(err))
	}
}

// respond builds the JSON response for one request line. ok is false when
// the request was malformed and the connection should be closed.
func respond(line []byte) ([]byte, bool) {
	var request Request
	err := json.Unmarshal(line, &request)

	// A request is malformed if it is not a well-formed JSON object, if any
	// required field is missing, or if the method name is not "isPrime".
	if err != nil || request.Method == nil || request.Number == nil || *request.Method != "isPrime" {
		malformed, _ := json.Marshal(malformedResponse{Method: "Malformed"})
		return malformed, false
	}

	response, _ := json.Marshal(Response{Method: "isPrime", Prime: isPrime(*request.Number)})
	return response, true
}

// isPrime reports whether n is a prime number. Negative and non-integer
// numbers are never prime.
func isPrime(n float64) bool {
	if n < 2 || n != math.Trunc(n) {
		return false
	}
	num := uint64(n)
	if num == 2 {
		return true
	}
	if num%2 == 0 {
		return false
	}
	for i := uint64(3); i*i <= num; i += 2 {
		if num%i == 0 {
			return false
		}
	}
	return true
}
