package server

import (
	"bufio"
	"encoding/json"
	"io"
	"net"
	"time"

	log "github.com/sirupsen/logrus"
)

// maxLineLen bounds a single report line so a misbehaving device cannot
// grow the read buffer without limit.
const maxLineLen = 64 * 1024

// ReportHandler consumes validated device reports.
type ReportHandler interface {
	HandleReport(rep Report) error
}

type ack struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Server accepts TCP connections from field devices and feeds their
// line-delimited JSON reports into the handler.
type Server struct {
	addr    string
	ttl     time.Duration
	handler ReportHandler
	l       net.Listener
}

func NewServer(addr string, ttl time.Duration, handler ReportHandler) *Server {
	return &Server{addr: addr, ttl: ttl, handler: handler}
}

func (s *Server) Run() error {
	var err error

	s.l, err = net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	defer s.l.Close()

	log.Infof("Server started on %s", s.addr)
	for {
		conn, err := s.l.Accept()
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				log.WithField("err", err).Error("Accept error")
				continue
			}
			return err
		}
		go s.handleConn(conn)
	}
}

func (s *Server) Stop() error {
	if s.l != nil {
		return s.l.Close()
	}

	return nil
}

func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()

	log.WithField("ip", conn.RemoteAddr()).Info("Connection established")

	reader := bufio.NewReaderSize(conn, maxLineLen)
	for {
		if s.ttl > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(s.ttl))
		} else {
			_ = conn.SetReadDeadline(time.Time{})
		}

		line, err := reader.ReadBytes('\n')
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				log.WithField("ip", conn.RemoteAddr()).Warn("Read timeout")
			} else if err == io.EOF {
				log.WithField("ip", conn.RemoteAddr()).Info("Client closed the connection")
			} else {
				log.WithField("err", err).Error("Receive error")
			}
			_ = conn.SetDeadline(time.Time{})
			return
		}

		var rep Report
		if err := json.Unmarshal(line, &rep); err != nil {
			log.WithField("err", err).Warn("Malformed report")
			s.respond(conn, ack{Status: "error", Error: "malformed report"})
			continue
		}

		if err := rep.Validate(); err != nil {
			log.WithFields(log.Fields{"err": err, "ip": conn.RemoteAddr()}).Warn("Rejected report")
			s.respond(conn, ack{Status: "error", Error: err.Error()})
			continue
		}

		if err := s.handler.HandleReport(rep); err != nil {
			log.WithFields(log.Fields{"err": err, "technician": rep.TechnicianID}).Error("Failed to process report")
			s.respond(conn, ack{Status: "error", Error: "internal error"})
			continue
		}

		s.respond(conn, ack{Status: "ok"})
	}
}

func (s *Server) respond(conn net.Conn, a ack) {
	payload, err := json.Marshal(a)
	if err != nil {
		return
	}
	_, _ = conn.Write(append(payload, '\n'))
}
