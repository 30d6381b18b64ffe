package cmd

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cosmossdk.io/log"
	"github.com/go-chi/chi/v5"
	"github.com/holiman/uint256"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"

	"compactvault/utils"
	compacttypes "compactvault/x/compact/types"
)

const maxPayloadBytes = 1 << 20

// Server answers hashing requests for off-chain signers. It holds no state
// beyond its Config.
type Server struct {
	cfg    Config
	logger log.Logger
}

// NewServer creates a hashing Server.
func NewServer(cfg Config, logger log.Logger) *Server {
	return &Server{cfg: cfg, logger: logger.With("module", "compactctl/serve")}
}

// Routes returns the HTTP handler of the service.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(withRequestID)
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})
	r.Route("/v1", func(r chi.Router) {
		r.Get("/domain", s.handleDomain)
		r.Get("/lock-ids/{id}", s.handleLockID)
		r.Post("/hash/{kind}", s.handleHash)
	})
	return r
}

func (s *Server) handleDomain(w http.ResponseWriter, r *http.Request) {
	chainID := s.cfg.ChainID
	if raw := r.URL.Query().Get("chain_id"); raw != "" {
		v, err := cast.ToUint64E(raw)
		if err != nil || v == 0 {
			writeError(w, r, http.StatusBadRequest, "INVALID_CHAIN_ID", "chain_id must be a positive integer", raw)
			return
		}
		chainID = v
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"name":               compacttypes.DomainName,
		"version":            compacttypes.DomainVersion,
		"chain_id":           chainID,
		"verifying_contract": s.cfg.VerifyingContract,
		"domain_separator":   compacttypes.DomainSeparator(uint256.NewInt(chainID), s.cfg.VerifyingContract),
	})
}

func (s *Server) handleLockID(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "id")
	id, err := ParseLockID(raw)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_LOCK_ID", err.Error(), raw)
		return
	}
	writeJSON(w, http.StatusOK, DescribeLockID(id))
}

func (s *Server) handleHash(w http.ResponseWriter, r *http.Request) {
	kind, err := compacttypes.ParseClaimKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeError(w, r, http.StatusNotFound, "UNKNOWN_KIND", err.Error(), nil)
		return
	}
	rawArbiter := r.URL.Query().Get("arbiter")
	arbiter, ok := utils.ParseAddress(rawArbiter)
	if !ok {
		writeError(w, r, http.StatusBadRequest, "INVALID_ARBITER", "arbiter must be a hex or bech32 address", rawArbiter)
		return
	}

	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxPayloadBytes))
	if err != nil {
		writeError(w, r, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", err.Error(), nil)
		return
	}
	payload, err := DecodePayload(kind, raw)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_PAYLOAD", err.Error(), nil)
		return
	}
	res, err := HashPayload(s.cfg, payload, arbiter)
	if err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, "INVALID_CLAIM", err.Error(), nil)
		return
	}
	s.logger.Debug("claim hashed", "kind", res.Kind, "claim_hash", res.ClaimHash.Hex(), "request_id", requestID(r))
	writeJSON(w, http.StatusOK, res)
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("hashing service listening",
			"addr", addr,
			"chain_id", s.cfg.ChainID,
			"verifying_contract", s.cfg.VerifyingContract.Hex(),
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.logger.Info("hashing service stopped")
	return nil
}

// ServeCmd runs the hashing service.
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve claim hashing and lock id decoding over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := configFrom(cmd.Context())
			listen, _ := cmd.Flags().GetString(flagListen)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger := log.NewLogger(cmd.ErrOrStderr())
			return NewServer(cfg, logger).ListenAndServe(ctx, listen)
		},
	}
	cmd.Flags().String(flagListen, DefaultListenAddr, "address the hashing service listens on")
	return cmd
}
