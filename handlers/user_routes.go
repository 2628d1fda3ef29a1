// handlers/user_routes.go
package handlers

import (
	"errors"
	"log"
	"strconv"

	"offerwall-credit-system/middleware"
	"offerwall-credit-system/models"
	"offerwall-credit-system/services"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SetupUserRoutes registers the authenticated end-user actions: daily
// check-in, referral claim, offer tracking and the read-only ledger views
// the UI (and the admin cashout screen) consume.
func SetupUserRoutes(app *fiber.App, ledger *services.LedgerService, checkin *services.CheckinService, referral *services.ReferralService) {
	user := app.Group("/user", middleware.GatewayAuthMiddleware(), middleware.UserContextMiddleware())

	user.Post("/checkin", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		result, err := checkin.CheckIn(userID)
		if err != nil {
			if errors.Is(err, services.ErrUserNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "account not found"})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "check-in failed"})
		}
		return c.JSON(result)
	})

	user.Post("/referral/claim", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		// The gateway's auth context is the source of truth for identity;
		// mirror verification/device onto the local row before resolving so
		// a user who just verified doesn't have to wait for the next sync.
		syncIdentityFromContext(ledger.DB, c)

		status, err := referral.Resolve(userID)
		if err != nil {
			if errors.Is(err, services.ErrUserNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "account not found"})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "referral resolution failed"})
		}

		return c.JSON(fiber.Map{
			"status":  status,
			"message": referralMessage(status),
		})
	})

	user.Post("/offers/start", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		var req struct {
			Partner string `json:"partner"`
			OfferID string `json:"offer_id"`
		}
		if err := c.BodyParser(&req); err != nil || req.Partner == "" || req.OfferID == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "partner and offer_id are required"})
		}

		pending := models.PendingOffer{
			ID:      uuid.NewString(),
			UserID:  userID,
			Partner: req.Partner,
			OfferID: req.OfferID,
		}
		if err := ledger.DB.Create(&pending).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to record offer start"})
		}
		return c.Status(fiber.StatusCreated).JSON(pending)
	})

	user.Get("/balance", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		var account models.User
		if err := ledger.DB.Where("id = ?", userID).First(&account).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "account not found"})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
		}

		return c.JSON(fiber.Map{
			"balance":                 account.Balance,
			"bonus_percent":           account.BonusPercent,
			"daily_streak":            account.DailyStreak,
			"last_check_in":           account.LastCheckIn,
			"referral_code":           account.ReferralCode,
			"total_referral_earnings": account.TotalReferralEarnings,
		})
	})

	user.Get("/offers/history", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		page, size := pagination(c)

		var entries []models.OfferHistory
		if err := ledger.DB.Where("user_id = ?", userID).
			Order("created_at DESC").
			Limit(size).Offset((page - 1) * size).
			Find(&entries).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch history"})
		}
		return c.JSON(fiber.Map{"entries": entries, "page": page, "size": size})
	})

	user.Get("/audit", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		page, size := pagination(c)

		var entries []models.AuditEntry
		if err := ledger.DB.Where("user_id = ?", userID).
			Order("created_at DESC").
			Limit(size).Offset((page - 1) * size).
			Find(&entries).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch audit log"})
		}
		return c.JSON(fiber.Map{"entries": entries, "page": page, "size": size})
	})
}

func pagination(c *fiber.Ctx) (page, size int) {
	page, _ = strconv.Atoi(c.Query("page", "1"))
	size, _ = strconv.Atoi(c.Query("size", "20"))
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = 20
	}
	return page, size
}

// syncIdentityFromContext mirrors the gateway's verification flag and device
// fingerprint onto the local account row. Identity fields only — balance and
// streak columns are never touched outside the ledger transaction path.
func syncIdentityFromContext(db *gorm.DB, c *fiber.Ctx) {
	userID := c.Locals("user_id").(string)
	verified := c.Locals("email_verified").(bool)
	deviceID := c.Locals("device_id").(string)

	updates := map[string]interface{}{}
	if verified {
		updates["email_verified"] = true
	}
	if deviceID != "" {
		updates["device_id"] = deviceID
	}
	if len(updates) > 0 {
		if err := db.Model(&models.User{}).Where("id = ?", userID).Updates(updates).Error; err != nil {
			log.Printf("⚠️ Failed to mirror identity for user %q: %v", userID, err)
		}
	}
}

func referralMessage(status services.ReferralStatus) string {
	switch status {
	case services.ReferralNotVerified:
		return "Verify your email to claim your referral reward."
	case services.ReferralNone:
		return "No referral is attached to this account."
	case services.ReferralAlreadyResolved:
		return "Your referral has already been processed."
	case services.ReferralInvalidCode:
		return "The referral code on this account is not valid."
	case services.ReferralPaidSpecial, services.ReferralPaidNormal, services.ReferralSameDevice, services.ReferralCapReached:
		return "Your referral reward has been credited."
	case services.ReferralSelfBlocked, services.ReferralCircularBlocked:
		return "This referral is not eligible for a reward."
	default:
		return "Referral processed."
	}
}
