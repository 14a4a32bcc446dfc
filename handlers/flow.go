package handlers

import (
	"crypto/rsa"
	"encoding/json"
	"errors"
	"net/http"

	"wellnessbot/models"
	"wellnessbot/services/flowcrypto"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// FlowHandler serves the encrypted flow data-exchange endpoint.
type FlowHandler struct {
	PrivateKey *rsa.PrivateKey
	Dispatcher *flowcrypto.Dispatcher
	Logger     *zap.Logger
}

func NewFlowHandler(priv *rsa.PrivateKey, d *flowcrypto.Dispatcher, logger *zap.Logger) *FlowHandler {
	return &FlowHandler{PrivateKey: priv, Dispatcher: d, Logger: logger}
}

// Exchange decrypts the request, dispatches the action, and returns the
// encrypted response as a bare base64 body. Decryption failures are 401 and
// unknown actions 400; neither leaks internal detail to the client.
func (h *FlowHandler) Exchange(c *gin.Context) {
	if h.PrivateKey == nil {
		h.Logger.Warn("flow endpoint called without a configured private key")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "decryption failed"})
		return
	}

	var envelope models.FlowEnvelope
	if err := c.ShouldBindJSON(&envelope); err != nil {
		h.Logger.Warn("flow request missing encryption fields", zap.Error(err))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "decryption failed"})
		return
	}

	plaintext, aesKey, nonce, err := flowcrypto.DecryptRequest(flowcrypto.Envelope{
		EncryptedFlowData: envelope.EncryptedFlowData,
		EncryptedAESKey:   envelope.EncryptedAESKey,
		InitialVector:     envelope.InitialVector,
	}, h.PrivateKey)
	if err != nil {
		h.Logger.Warn("flow request decryption failed", zap.Error(err))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "decryption failed"})
		return
	}

	var req models.FlowRequest
	if err := json.Unmarshal(plaintext, &req); err != nil {
		h.Logger.Warn("flow payload unmarshal failed", zap.Error(err))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "decryption failed"})
		return
	}

	response, err := h.Dispatcher.Dispatch(c.Request.Context(), req)
	if errors.Is(err, flowcrypto.ErrUnknownAction) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown action"})
		return
	}
	if err != nil {
		h.Logger.Error("flow dispatch failed", zap.String("action", req.Action), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	body, err := flowcrypto.EncryptResponse(response, aesKey, nonce)
	if err != nil {
		h.Logger.Error("flow response encryption failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.Data(http.StatusOK, "text/plain", []byte(body))
}
