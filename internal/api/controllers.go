package api

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Letscrypto25/Crypto-bot-3-sub000/pkg/db"
)

// getProfile returns the authenticated user's trading profile. Credentials
// never leave the server; only their presence is reported.
func (s *Server) getProfile(c *gin.Context) {
	user, ok := s.currentUser(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id":           user.ID,
		"email":             user.Email,
		"exchange":          string(user.Exchange),
		"active":            user.Active,
		"autobot_enabled":   user.AutobotEnabled,
		"risk_tolerance":    user.RiskTolerance,
		"profit_target":     user.ProfitTarget,
		"dip_threshold":     user.DipThreshold,
		"rsi_oversold":      user.RSIOversold,
		"rsi_overbought":    user.RSIOverbought,
		"ma_short":          user.MAShort,
		"ma_long":           user.MALong,
		"daily_profit":      user.DailyProfit,
		"last_trade_result": user.LastTradeResult,
		"has_binance_keys":  user.BinanceAPIKey != "",
		"has_luno_keys":     user.LunoAPIKeyID != "",
		"telegram_chat_id":  user.TelegramChatID,
	})
}

// settingsRequest carries a partial update; nil fields are left untouched.
type settingsRequest struct {
	Exchange         *string  `json:"exchange"`
	RiskTolerance    *float64 `json:"risk_tolerance"`
	ProfitTarget     *float64 `json:"profit_target"`
	DipThreshold     *float64 `json:"dip_threshold"`
	RSIOversold      *float64 `json:"rsi_oversold"`
	RSIOverbought    *float64 `json:"rsi_overbought"`
	MAShort          *int     `json:"ma_short"`
	MALong           *int     `json:"ma_long"`
	TelegramChatID   *string  `json:"telegram_chat_id"`
	BinanceAPIKey    *string  `json:"binance_api_key"`
	BinanceAPISecret *string  `json:"binance_api_secret"`
	LunoAPIKeyID     *string  `json:"luno_api_key_id"`
	LunoAPISecret    *string  `json:"luno_api_secret"`
}

// updateSettings applies a partial profile update. Exchange and flag changes
// take effect at the scheduler's next reconciliation; parameter changes at
// the runner's next cycle.
func (s *Server) updateSettings(c *gin.Context) {
	userID := CurrentUserID(c)

	var req settingsRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":  "INVALID_PAYLOAD",
			"error": "invalid request payload",
		})
		return
	}

	fields := make(map[string]any)

	if req.Exchange != nil {
		if !validExchange(db.Exchange(*req.Exchange)) {
			c.JSON(http.StatusBadRequest, gin.H{
				"code":  "INVALID_EXCHANGE",
				"error": "exchange must be binance, luno or both",
			})
			return
		}
		fields["exchange"] = *req.Exchange
	}
	if req.RiskTolerance != nil {
		if *req.RiskTolerance <= 0 || *req.RiskTolerance > 1 {
			c.JSON(http.StatusBadRequest, gin.H{
				"code":  "INVALID_RISK_TOLERANCE",
				"error": "risk_tolerance must be in (0, 1]",
			})
			return
		}
		fields["risk_tolerance"] = *req.RiskTolerance
	}
	if req.ProfitTarget != nil {
		fields["profit_target"] = *req.ProfitTarget
	}
	if req.DipThreshold != nil {
		fields["dip_threshold"] = *req.DipThreshold
	}
	if req.RSIOversold != nil {
		fields["rsi_oversold"] = *req.RSIOversold
	}
	if req.RSIOverbought != nil {
		fields["rsi_overbought"] = *req.RSIOverbought
	}
	if req.MAShort != nil {
		fields["ma_short"] = *req.MAShort
	}
	if req.MALong != nil {
		fields["ma_long"] = *req.MALong
	}
	if req.TelegramChatID != nil {
		fields["telegram_chat_id"] = *req.TelegramChatID
	}

	// API credentials are stored encrypted.
	for col, val := range map[string]*string{
		"binance_api_key":    req.BinanceAPIKey,
		"binance_api_secret": req.BinanceAPISecret,
		"luno_api_key_id":    req.LunoAPIKeyID,
		"luno_api_secret":    req.LunoAPISecret,
	} {
		if val == nil {
			continue
		}
		if *val == "" {
			fields[col] = ""
			continue
		}
		enc, err := s.Encryptor.Encrypt(*val)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"code":  "INTERNAL_ERROR",
				"error": "failed to encrypt credentials",
			})
			return
		}
		fields[col] = enc
	}

	if len(fields) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":  "EMPTY_UPDATE",
			"error": "no settings provided",
		})
		return
	}

	if err := s.DB.UpdateUserFields(c.Request.Context(), userID, fields); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{
				"code":  "USER_NOT_FOUND",
				"error": "user not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":  "INTERNAL_ERROR",
			"error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"updated": len(fields)})
}

func (s *Server) startAutobot(c *gin.Context) {
	s.setAutobot(c, true)
}

func (s *Server) stopAutobot(c *gin.Context) {
	s.setAutobot(c, false)
}

// setAutobot flips the flag; the scheduler converges on its next pass.
func (s *Server) setAutobot(c *gin.Context, enabled bool) {
	userID := CurrentUserID(c)
	err := s.DB.UpdateUserFields(c.Request.Context(), userID, map[string]any{
		"autobot_enabled": enabled,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{
				"code":  "USER_NOT_FOUND",
				"error": "user not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":  "INTERNAL_ERROR",
			"error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"autobot_enabled": enabled,
		"note":            "takes effect at the next reconciliation",
	})
}

func (s *Server) getTrades(c *gin.Context) {
	userID := CurrentUserID(c)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	trades, err := s.DB.ListTradesByUser(c.Request.Context(), userID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":  "INTERNAL_ERROR",
			"error": err.Error(),
		})
		return
	}

	out := make([]gin.H, 0, len(trades))
	for _, t := range trades {
		out = append(out, gin.H{
			"id":           t.ID,
			"strategy":     t.Strategy,
			"venue":        t.Venue,
			"pair":         t.Pair,
			"side":         t.Side,
			"amount":       t.Amount,
			"outcome":      t.Outcome,
			"profit_delta": t.ProfitDelta,
			"created_at":   t.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"trades": out})
}

func (s *Server) getLeaderboard(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	entries, err := s.DB.Leaderboard(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":  "INTERNAL_ERROR",
			"error": err.Error(),
		})
		return
	}

	out := make([]gin.H, 0, len(entries))
	for i, e := range entries {
		out = append(out, gin.H{
			"rank":         i + 1,
			"user_id":      e.UserID,
			"email":        e.Email,
			"daily_profit": e.DailyProfit,
			"last_result":  e.LastResult,
		})
	}
	c.JSON(http.StatusOK, gin.H{"leaderboard": out})
}

func (s *Server) getStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.Scheduler.Status())
}

// currentUser loads the authenticated user's row or writes the error reply.
func (s *Server) currentUser(c *gin.Context) (*db.User, bool) {
	userID := CurrentUserID(c)
	user, err := s.DB.GetUser(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{
				"code":  "USER_NOT_FOUND",
				"error": "user not found",
			})
			return nil, false
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":  "INTERNAL_ERROR",
			"error": err.Error(),
		})
		return nil, false
	}
	return user, true
}
