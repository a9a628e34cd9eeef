package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/Oliverkirui/saco/internal/config"
	"github.com/Oliverkirui/saco/internal/events/kafka"
	"github.com/Oliverkirui/saco/internal/interfaces"
	"github.com/Oliverkirui/saco/internal/ledger"
	"github.com/Oliverkirui/saco/internal/logging"
	"github.com/Oliverkirui/saco/internal/models"
	"github.com/Oliverkirui/saco/internal/reports"
	"github.com/Oliverkirui/saco/internal/storage/memory"
	"github.com/Oliverkirui/saco/internal/storage/postgres"
	"github.com/Oliverkirui/saco/internal/storage/sqlite"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("SACO_CONFIG"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	log := logging.New(cfg.Logging)
	slog.SetDefault(log)

	ctx := context.Background()

	store, cleanup, err := openStore(ctx, cfg.Storage)
	if err != nil {
		log.Error("failed to open store", "driver", cfg.Storage.Driver, "error", err)
		os.Exit(1)
	}
	defer cleanup()

	var publisher interfaces.EventPublisher
	if cfg.Kafka.Enabled {
		p := kafka.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer p.Close()
		publisher = p
	}

	engine := ledger.NewLedger(store, publisher, log)
	facade := reports.New(store)

	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	mux.HandleFunc("/members", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			members, err := facade.Members(r.Context())
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, members)

		case http.MethodPost:
			if !adminOK(w, r, cfg.AdminToken) {
				return
			}
			var req struct {
				FullName          string `json:"full_name"`
				IDNumber          string `json:"id_number"`
				PhoneNumber       string `json:"phone_number"`
				NextOfKinFullName string `json:"next_of_kin_full_name"`
				NextOfKinIDNumber string `json:"next_of_kin_id_number"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "invalid request body", http.StatusBadRequest)
				return
			}
			member, err := engine.RegisterMember(r.Context(), models.Member{
				FullName:          req.FullName,
				IDNumber:          req.IDNumber,
				PhoneNumber:       req.PhoneNumber,
				NextOfKinFullName: req.NextOfKinFullName,
				NextOfKinIDNumber: req.NextOfKinIDNumber,
			})
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusCreated, member)

		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})

	mux.HandleFunc("/members/shares", func(w http.ResponseWriter, r *http.Request) {
		handleMutation(w, r, cfg.AdminToken, engine.DepositShares)
	})

	mux.HandleFunc("/members/loan", func(w http.ResponseWriter, r *http.Request) {
		handleMutation(w, r, cfg.AdminToken, engine.ApplyLoan)
	})

	mux.HandleFunc("/members/loan/payment", func(w http.ResponseWriter, r *http.Request) {
		handleMutation(w, r, cfg.AdminToken, engine.PayLoan)
	})

	mux.HandleFunc("/members/loans", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		loans, err := facade.OutstandingLoans(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, loans)
	})

	mux.HandleFunc("/members/statement", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		memberID, err := strconv.ParseInt(r.URL.Query().Get("member_id"), 10, 64)
		if err != nil {
			http.Error(w, "member_id is a mandatory numeric field", http.StatusBadRequest)
			return
		}
		statement, err := facade.MemberStatement(r.Context(), memberID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, statement)
	})

	mux.HandleFunc("/transactions", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		txns, err := facade.Transactions(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, txns)
	})

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	log.Info("starting server", "addr", addr, "driver", cfg.Storage.Driver)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func openStore(ctx context.Context, cfg config.StorageConfig) (interfaces.LedgerStore, func(), error) {
	switch cfg.Driver {
	case "memory":
		return memory.NewStore(), func() {}, nil
	case "sqlite":
		store, err := sqlite.Open(ctx, cfg.FilePath)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { store.Close() }, nil
	case "postgres":
		db, err := sql.Open("postgres", cfg.DSN)
		if err != nil {
			return nil, nil, err
		}
		store := postgres.NewStore(db)
		if err := store.InitSchema(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		return store, func() { db.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// handleMutation covers the three financial operations, which all take a
// member id and an amount.
func handleMutation(w http.ResponseWriter, r *http.Request, adminToken string,
	op func(context.Context, int64, decimal.Decimal) (models.Member, error)) {

	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !adminOK(w, r, adminToken) {
		return
	}

	var req struct {
		MemberID int64           `json:"member_id"`
		Amount   decimal.Decimal `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	member, err := op(r.Context(), req.MemberID, req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, member)
}

// adminOK enforces the administrator gate on mutating endpoints. An empty
// configured token disables the gate (local development only).
func adminOK(w http.ResponseWriter, r *http.Request, token string) bool {
	if token == "" || r.Header.Get("X-Admin-Token") == token {
		return true
	}
	http.Error(w, "administrator token required", http.StatusUnauthorized)
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// writeError translates domain errors into HTTP statuses. Business-rule
// rejections are expected outcomes, not server failures.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledger.ErrMemberNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ledger.ErrInvalidAmount):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ledger.ErrDuplicateIDNumber),
		errors.Is(err, ledger.ErrLoanAlreadyOutstanding),
		errors.Is(err, ledger.ErrInsufficientShares),
		errors.Is(err, ledger.ErrExceedsEligibility),
		errors.Is(err, ledger.ErrNoOutstandingLoan),
		errors.Is(err, ledger.ErrPaymentExceedsBalance):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, ledger.ErrStorageUnavailable):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
