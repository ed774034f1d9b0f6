// Package chat implements the budget chat room: a TCP broker that relays
// messages between named users and announces presence changes.
package chat

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"sort"
	"strings"
	"sync"
	"unicode"

	"go.uber.org/zap"
)

const DefaultNamePrompt = "Welcome to budgetchat! What shall I call you?"

type Server struct {
	namePrompt string
	log        *zap.Logger

	mu    sync.Mutex
	users map[string]net.Conn
}

func NewServer(namePrompt string, log *zap.Logger) *Server {
	return &Server{
		namePrompt: namePrompt,
		log:        log,
		users:      make(map[string]net.Conn),
	}
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

	if _, err := fmt.Fprintln(conn, s.namePrompt); err != nil {
		return
	}

	scanner := bufio.NewScanner(conn)
	if !scanner.Scan() {
		return
	}
	name := scanner.Text()
	if err := s.join(name, conn); err != nil {
		fmt.Fprintln(conn, "Error:", err)
		return
	}
	log.Info("user joined", zap.String("name", name))
	defer func() {
		s.leave(name)
		log.Info("user left", zap.String("name", name))
	}()

	for scanner.Scan() {
		s.relay(name, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		log.Warn("read failed", zap.Error(err))
	}
}

// join validates the requested name, adds the user, announces their arrival
// to everyone else, and sends them the room listing.
func (s *Server) join(name string, conn net.Conn) error {
	if err := validateName(name); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.users[name]; taken {
		return fmt.Errorf("username already taken")
	}

	var present []string
	for user, other := range s.users {
		present = append(present, user)
		fmt.Fprintln(other, "* "+name+" has entered the room")
	}
	sort.Strings(present)
	fmt.Fprintln(conn, "* The room contains: "+strings.Join(present, ", "))

	s.users[name] = conn
	return nil
}

func (s *Server) leave(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.users, name)
	for _, conn := range s.users {
		fmt.Fprintln(conn, "* "+name+" has left the room")
	}
}

func (s *Server) relay(sender, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for user, conn := range s.users {
		if user != sender {
			fmt.Fprintln(conn, "["+sender+"] "+message)
		}
	}
}

func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("username must not be empty")
	}
	for _, r := range name {
		if !unicode.IsLetter(r) && !unicode.IsNumber(r) {
			return fmt.Errorf("username must be alphanumeric")
		}
	}
	return nil
}
