package transport

import (
	"context"
	"net"
	"testing"
	"time"
)

func TestUDPConnSendAndReceive(t *testing.T) {
	server, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer server.Close()

	c := NewUDPConn()
	datagrams, err := c.Dial(context.Background(), server.LocalAddr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer c.Close()

	if err := c.Send(context.Background(), []byte("ping")); err != nil {
		t.Fatalf("send: %v", err)
	}

	buf := make([]byte, 64)
	server.SetReadDeadline(time.Now().Add(time.Second))
	n, clientAddr, err := server.ReadFromUDP(buf)
	if err != nil {
		t.Fatalf("server read: %v", err)
	}
	if string(buf[:n]) != "ping" {
		t.Fatalf("server got %q, want ping", buf[:n])
	}

	if _, err := server.WriteToUDP([]byte("pong"), clientAddr); err != nil {
		t.Fatalf("server write: %v", err)
	}

	select {
	case got := <-datagrams:
		if string(got) != "pong" {
			t.Fatalf("client got %q, want pong", got)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for datagram")
	}
}

func TestUDPConnSendAfterCloseFails(t *testing.T) {
	c := NewUDPConn()
	if err := c.Send(context.Background(), []byte("x")); err != ErrClosed {
		t.Fatalf("Send before Dial = %v, want ErrClosed", err)
	}

	server, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer server.Close()

	if _, err := c.Dial(context.Background(), server.LocalAddr().String()); err != nil {
		t.Fatalf("dial: %v", err)
	}
	c.Close()

	if err := c.Send(context.Background(), []byte("x")); err != ErrClosed {
		t.Fatalf("Send after Close = %v, want ErrClosed", err)
	}
}

func TestUDPConnCloseIsIdempotent(t *testing.T) {
	c := NewUDPConn()
	if err := c.Close(); err != nil {
		t.Fatalf("Close before Dial: %v", err)
	}

	server, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer server.Close()

	if _, err := c.Dial(context.Background(), server.LocalAddr().String()); err != nil {
		t.Fatalf("dial: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("first close: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}
