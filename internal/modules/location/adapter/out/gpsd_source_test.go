package out_test

import (
	"context"
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	locationout "bnkchallenge/internal/modules/location/adapter/out"
	"bnkchallenge/internal/modules/location/domain"
)

const gpsdBanner = `{"class":"VERSION","release":"3.25","proto_major":3,"proto_minor":15}`

type stepClock struct{ now time.Time }

// answerWatch greets like gpsd, waits for the WATCH command, then streams lines.
func answerWatch(c net.Conn, lines ...string) {
	_, _ = c.Write([]byte(gpsdBanner + "\n"))
	buf := make([]byte, 256)
	n, err := c.Read(buf)
	if err != nil || !strings.HasPrefix(string(buf[:n]), "?WATCH=") {
		return
	}
	for _, line := range lines {
		_, _ = c.Write([]byte(line + "\n"))
	}
}

func (c *stepClock) Now() time.Time { return c.now }

func serveGPSD(t *testing.T, lines ...string) string {
	t.Helper()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { _ = lis.Close() })
	go func() {
		for {
			conn, err := lis.Accept()
			if err != nil {
				return
			}
			go func(c net.Conn) {
				defer c.Close()
				answerWatch(c, lines...)
			}(conn)
		}
	}()
	return lis.Addr().String()
}

func TestGPSDSourceReadsFirstFix(t *testing.T) {
	t.Parallel()
	addr := serveGPSD(t,
		`{"class":"SKY","satellites":[]}`,
		`{"class":"TPV","mode":1}`,
		`{"class":"TPV","mode":3,"time":"2026-10-19T09:00:00.000Z","lat":35.1586,"lon":129.1603,"epx":4.5,"epy":6.0}`,
	)
	clk := &stepClock{now: time.Date(2026, 10, 19, 9, 0, 1, 0, time.UTC)}
	src := locationout.NewGPSDSource(addr, clk)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	pos, err := src.Acquire(ctx, domain.DefaultOptions())
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if pos.Latitude != 35.1586 || pos.Longitude != 129.1603 {
		t.Fatalf("unexpected position %+v", pos)
	}
	if pos.Accuracy == nil || *pos.Accuracy != 6.0 {
		t.Fatalf("accuracy must be the worse axis, got %v", pos.Accuracy)
	}
	if !pos.At.Equal(time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)) {
		t.Fatalf("fix time must come from the report, got %s", pos.At)
	}
	if src.Kind() != domain.SourcePlatformGeolocation {
		t.Fatalf("unexpected kind %s", src.Kind())
	}
}

func TestGPSDSourceServesCachedFixWithinMaxAge(t *testing.T) {
	t.Parallel()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := lis.Addr().String()
	go func() {
		conn, err := lis.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		answerWatch(conn, `{"class":"TPV","mode":2,"lat":1,"lon":2,"epx":3,"epy":2}`)
		// Hold the connection until the client has its fix.
		_, _ = conn.Read(make([]byte, 1))
	}()

	clk := &stepClock{now: time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)}
	src := locationout.NewGPSDSource(addr, clk)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := src.Acquire(ctx, domain.DefaultOptions()); err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	_ = lis.Close()

	clk.now = clk.now.Add(5 * time.Second)
	pos, err := src.Acquire(ctx, domain.DefaultOptions())
	if err != nil {
		t.Fatalf("cached acquire: %v", err)
	}
	if pos.Latitude != 1 || *pos.Accuracy != 3 {
		t.Fatalf("unexpected cached position %+v", pos)
	}

	clk.now = clk.now.Add(6 * time.Second)
	if _, err := src.Acquire(ctx, domain.DefaultOptions()); !errors.Is(err, domain.ErrPositionUnavailable) {
		t.Fatalf("stale cache must re-query and fail, got %v", err)
	}
}

func TestGPSDSourceUnreachable(t *testing.T) {
	t.Parallel()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := lis.Addr().String()
	_ = lis.Close()

	src := locationout.NewGPSDSource(addr, &stepClock{now: time.Now()})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := src.Acquire(ctx, domain.DefaultOptions()); !errors.Is(err, domain.ErrPositionUnavailable) {
		t.Fatalf("expected position unavailable, got %v", err)
	}
}

func TestGPSDSourceHonorsDeadline(t *testing.T) {
	t.Parallel()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { _ = lis.Close() })
	go func() {
		conn, err := lis.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		time.Sleep(time.Second)
	}()

	src := locationout.NewGPSDSource(lis.Addr().String(), &stepClock{now: time.Now()})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = src.Acquire(ctx, domain.DefaultOptions())
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestFixedSource(t *testing.T) {
	t.Parallel()
	src := locationout.NewFixedSource(35.1, 129.0)
	pos, err := src.Acquire(context.Background(), domain.DefaultOptions())
	if err != nil || pos.Latitude != 35.1 || pos.Longitude != 129.0 {
		t.Fatalf("unexpected fixed result %+v %v", pos, err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := src.Acquire(ctx, domain.DefaultOptions()); err == nil {
		t.Fatalf("expected canceled context error")
	}
}
