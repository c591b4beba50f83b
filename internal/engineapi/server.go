package engineapi

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/golang-jwt/jwt/v4"
)

func randomSecret() ([]byte, error) {
	secret := make([]byte, jwtSecretSize)
	if _, err := rand.Read(secret); err != nil {
		return nil, err
	}
	return secret, nil
}

// jwtSecretSize is the byte length of the shared secret engine-API clients
// authenticate with, per the execution-apis authentication spec.
const jwtSecretSize = 32

// clockSkew bounds how far a token's iat claim may drift from wall-clock
// time in either direction before it's rejected.
const clockSkew = 60 * time.Second

// LoadJWTSecret reads a 32-byte hex secret from path, generating a fresh
// random one and writing it there first if the file doesn't exist yet —
// the same convention as an --authrpc.jwtsecret flag pointing at a fresh
// datadir.
func LoadJWTSecret(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err == nil {
		secret, err := decodeJWTSecret(raw)
		if err != nil {
			return nil, fmt.Errorf("engineapi: parsing jwt secret at %s: %w", path, err)
		}
		return secret, nil
	}
	if !os.IsNotExist(err) {
		return nil, err
	}

	secret, err := randomSecret()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, []byte(hex.EncodeToString(secret)), 0o600); err != nil {
		return nil, err
	}
	log.Info("Generated engine API JWT secret", "path", path)
	return secret, nil
}

func decodeJWTSecret(raw []byte) ([]byte, error) {
	s := strings.TrimSpace(string(raw))
	s = strings.TrimPrefix(s, "0x")
	secret, err := hex.DecodeString(s)
	if err != nil {
		return nil, err
	}
	if len(secret) != jwtSecretSize {
		return nil, fmt.Errorf("expected %d bytes, got %d", jwtSecretSize, len(secret))
	}
	return secret, nil
}

// Server is the authrpc listener: a JSON-RPC 2.0 server, reachable only with
// a bearer token signed by secret, exposing the engine_ namespace.
type Server struct {
	rpcServer *rpc.Server
	secret    []byte
}

// NewServer registers driver's engine_ methods on a fresh RPC server bound
// to secret for bearer-token authentication.
func NewServer(driver *Driver, secret []byte) (*Server, error) {
	rpcServer := rpc.NewServer()
	if err := rpcServer.RegisterName("engine", &API{driver: driver}); err != nil {
		return nil, err
	}
	return &Server{rpcServer: rpcServer, secret: secret}, nil
}

// ServeHTTP authenticates the request's bearer token before handing it to
// the underlying JSON-RPC server, matching the execution-apis requirement
// that the engine namespace only ever be reachable with a valid token.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := s.checkAuth(r); err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}
	s.rpcServer.ServeHTTP(w, r)
}

func (s *Server) checkAuth(r *http.Request) error {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return fmt.Errorf("missing bearer token")
	}
	tokenString := strings.TrimPrefix(header, prefix)

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return fmt.Errorf("invalid token: %w", err)
	}

	iat, ok := claims["iat"]
	if !ok {
		return fmt.Errorf("token missing iat claim")
	}
	seconds, ok := iat.(float64)
	if !ok {
		return fmt.Errorf("token iat claim is not a number")
	}
	issued := time.Unix(int64(seconds), 0)
	if drift := time.Since(issued); drift > clockSkew || drift < -clockSkew {
		return fmt.Errorf("token iat claim outside allowed clock skew")
	}
	return nil
}

// ListenAndServe runs the authrpc HTTP listener until ctx is canceled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpServer := &http.Server{Addr: addr, Handler: s}
	errCh := make(chan error, 1)
	go func() { errCh <- httpServer.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	}
}
