package main

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"metrix-portal/internal/config"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

// The proxy exists so browser clients can reach the registry without
// tripping cross-origin restrictions and without holding the token.
type proxy struct {
	baseURL string
	token   string
	client  *http.Client
}

func (p *proxy) forward(c *gin.Context) {
	serial := c.Param("serial")

	lookupURL := fmt.Sprintf("%s/meter/?search=%s", p.baseURL, url.QueryEscape(serial))
	req, err := http.NewRequestWithContext(c.Request.Context(), http.MethodGet, lookupURL, nil)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	req.Header.Set("Accept", "application/json")
	if p.token != "" {
		req.Header.Set("Authorization", "Token "+p.token)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		log.Printf("registry request failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Printf("registry response read failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	// Relay the registry's own status and body, success or not.
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/json"
	}
	c.Data(resp.StatusCode, contentType, body)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on the environment")
	}

	cfg := config.New()

	p := &proxy{
		baseURL: cfg.RegistryCfg.BaseURL,
		token:   cfg.RegistryCfg.Token,
		client:  &http.Client{Timeout: 15 * time.Second},
	}

	r := gin.Default()
	r.Use(corsMiddleware())
	r.GET("/api/meter/:serial", p.forward)

	port := cfg.ProxyPort
	log.Printf("Starting registry proxy on port %s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Failed to start proxy: %v", err)
	}
}
