package http

import (
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"sync/atomic"

	"ledger/internal/core"
	"ledger/internal/log"
)

const msgTransactionAdded = "Transaction added successfully!"

// handleCreateTransaction records a transaction from the HTMX form or a
// JSON body.
func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	parser := NewRequestBodyParser(r)
	if err := parser.Parse(); err != nil {
		log.FromContext(ctx).WarnContext(ctx, "Invalid transaction request body", log.FieldError, err)
		BadRequestError("Invalid request format").Write(w)
		return
	}

	tx, err := s.ledger.Append(ctx, parser.Draft())
	var verr *core.ValidationError
	switch {
	case errors.As(err, &verr):
		atomic.AddInt64(&s.appMetrics.validationFailures, 1)
		log.FromContext(ctx).WarnContext(ctx, "Transaction rejected",
			log.FieldOperation, log.OpValidate,
			log.FieldFields, verr.FieldNames())
		if parser.IsJSON() {
			writeJSON(w, r, http.StatusUnprocessableEntity, map[string]any{
				"error":  verr.Error(),
				"fields": verr.FieldNames(),
			})
			return
		}
		msg := fmt.Sprintf("Please check: %s (%s)", strings.Join(verr.FieldNames(), ", "), verr.Error())
		UnprocessableEntityError(msg).TriggerErrorNotification(msg).Write(w)
		return
	case err != nil:
		atomic.AddInt64(&s.appMetrics.saveFailures, 1)
		log.LogError(ctx, "Failed to save transaction", err, log.ComponentLedger, log.OpCreate, nil)
		if parser.IsJSON() {
			writeJSON(w, r, http.StatusInternalServerError, map[string]any{"error": "error saving transaction"})
			return
		}
		InternalServerError("Error saving transaction").TriggerErrorNotification("Error saving transaction").Write(w)
		return
	}

	atomic.AddInt64(&s.appMetrics.transactionsCreated, 1)
	s.reports.Purge()

	if parser.IsJSON() {
		writeJSON(w, r, http.StatusOK, tx)
		return
	}

	NewHTMXResponse().
		TriggerTransactionCreated(tx.ID, core.MonthLabel(tx)).
		TriggerFormReset().
		TriggerSuccessNotification(msgTransactionAdded).
		Header("Cache-Control", "no-store").
		BodyHTML(`<div class="success">` + msgTransactionAdded + ` #` + fmt.Sprint(tx.ID) + `: ` +
			template.HTMLEscapeString(tx.Title) + ` ` + template.HTMLEscapeString(core.FormatAmount(tx.Amount)) +
			` (` + template.HTMLEscapeString(string(tx.Type)) + `)</div>`).
		Write(w)
}
