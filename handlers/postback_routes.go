// handlers/postback_routes.go
package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"strings"

	"offerwall-credit-system/partners"
	"offerwall-credit-system/services"

	"github.com/gofiber/fiber/v2"
)

// SetupPostbackRoutes registers one public endpoint per partner adapter.
// Partners authenticate inside their adapters — no gateway auth here.
func SetupPostbackRoutes(app *fiber.App, ledger *services.LedgerService, velocity *services.VelocityService, adapters ...partners.Adapter) {
	for _, adapter := range adapters {
		path := "/postback/" + adapter.Name()
		handler := postbackHandler(adapter, ledger, velocity)
		app.Get(path, handler)
		app.Post(path, handler)
	}
}

func postbackHandler(adapter partners.Adapter, ledger *services.LedgerService, velocity *services.VelocityService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		params := collectParams(c)

		ev, err := adapter.Parse(c.Method(), params)
		if err != nil {
			return respondAdapterError(c, adapter.Name(), err)
		}

		if ev.Reversal {
			if _, err := ledger.Reverse(ev); err != nil {
				return respondLedgerError(c, adapter.Name(), ev.ExternalTxID, err)
			}
			return c.SendString("OK")
		}

		verdict, err := velocity.Check(ev.UserID)
		if err != nil {
			log.Printf("❌ [%s] velocity check failed for user=%s: %v", adapter.Name(), ev.UserID, err)
			return c.Status(fiber.StatusInternalServerError).SendString("ERROR")
		}
		if verdict.Blocked {
			// Policy: flag for manual review but let the credit proceed.
			log.Printf("🚨 [%s] velocity block for user=%s: %s", adapter.Name(), ev.UserID, strings.Join(verdict.Reasons, "; "))
			if err := velocity.LogBlock(ev.UserID, adapter.Name(), verdict, ev.GrossUSD); err != nil {
				log.Printf("⚠️ [%s] failed to write fraud log for user=%s: %v", adapter.Name(), ev.UserID, err)
			}
		}

		result, err := ledger.Credit(ev)
		if err != nil {
			return respondLedgerError(c, adapter.Name(), ev.ExternalTxID, err)
		}
		if result.Duplicate {
			// Partners retry on non-200, so a duplicate still acks success.
			return c.SendString("DUP")
		}
		return c.SendString("OK")
	}
}

func respondAdapterError(c *fiber.Ctx, partner string, err error) error {
	switch {
	case errors.Is(err, partners.ErrMethodNotAllowed):
		return c.Status(fiber.StatusMethodNotAllowed).SendString("ERROR")
	case errors.Is(err, partners.ErrInvalidAuth):
		log.Printf("🚫 [%s] postback auth failure", partner)
		return c.Status(fiber.StatusForbidden).SendString("ERROR")
	case errors.Is(err, partners.ErrMissingParameter), errors.Is(err, partners.ErrInvalidAmount):
		return c.Status(fiber.StatusBadRequest).SendString("ERROR")
	default:
		log.Printf("❌ [%s] postback parse failure: %v", partner, err)
		return c.Status(fiber.StatusInternalServerError).SendString("ERROR")
	}
}

func respondLedgerError(c *fiber.Ctx, partner, txID string, err error) error {
	switch {
	case errors.Is(err, services.ErrUserNotFound):
		return c.Status(fiber.StatusNotFound).SendString("ERROR")
	case errors.Is(err, services.ErrTransient):
		// 500 tells the partner to retry; dedup makes the retry harmless.
		log.Printf("⚠️ [%s] transient failure for tx=%s: %v", partner, txID, err)
		return c.Status(fiber.StatusInternalServerError).SendString("ERROR")
	default:
		log.Printf("❌ [%s] ledger failure for tx=%s: %v", partner, txID, err)
		return c.Status(fiber.StatusInternalServerError).SendString("ERROR")
	}
}

// collectParams flattens the request into the adapter's view: body fields
// (form or JSON) overlaid by query params — query wins on conflict, matching
// how partners mix conventions between GET and POST deliveries.
func collectParams(c *fiber.Ctx) partners.Params {
	params := partners.Params{}

	if strings.Contains(c.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
		var body map[string]json.RawMessage
		if err := json.Unmarshal(c.Body(), &body); err == nil {
			for k, raw := range body {
				var str string
				if err := json.Unmarshal(raw, &str); err == nil {
					params[k] = str
					continue
				}
				var num json.Number
				if err := json.Unmarshal(raw, &num); err == nil {
					params[k] = num.String()
					continue
				}
				var b bool
				if err := json.Unmarshal(raw, &b); err == nil {
					if b {
						params[k] = "true"
					} else {
						params[k] = "false"
					}
				}
			}
		}
	} else {
		c.Request().PostArgs().VisitAll(func(key, value []byte) {
			params[string(key)] = string(value)
		})
	}

	c.Request().URI().QueryArgs().VisitAll(func(key, value []byte) {
		params[string(key)] = string(value)
	})

	return params
}
