// Package auth implements the Strava OAuth2 login and a token source that
// persists refreshed tokens.
package auth

import (
	"errors"
	"strings"

	"golang.org/x/oauth2"
)

// Strava OAuth endpoints
const (
	AuthURL  = "https://www.strava.com/oauth/authorize"
	TokenURL = "https://www.strava.com/oauth/token"
)

// activityScope is needed to read private and privacy-zoned runs
const activityScope = "activity:read_all"

// Scopes requested at login. Strava expects them comma separated in a single value.
var Scopes = []string{"read," + activityScope}

// DefaultRedirectURL is used when the config leaves redirect_url empty
const DefaultRedirectURL = "http://localhost:8089/callback"

// ErrScopeDenied is returned when the athlete unticks activity access on the consent page
var ErrScopeDenied = errors.New("strava login did not grant " + activityScope)

// Config holds the OAuth client credentials
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// NewOAuthConfig builds the oauth2 config for Strava. Strava wants the client
// credentials in the form body, not in a basic auth header.
func NewOAuthConfig(cfg Config) *oauth2.Config {
	redirect := cfg.RedirectURL
	if redirect == "" {
		redirect = DefaultRedirectURL
	}
	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:   AuthURL,
			TokenURL:  TokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
		RedirectURL: redirect,
		Scopes:      Scopes,
	}
}

// GrantedActivityScope reports whether the callback's scope parameter
// includes activity access
func GrantedActivityScope(granted string) bool {
	for _, s := range strings.Split(granted, ",") {
		if strings.TrimSpace(s) == activityScope {
			return true
		}
	}
	return false
}

// AuthResult is the outcome of a completed login
type AuthResult struct {
	Token     *oauth2.Token
	AthleteID int64
}

// ExtractAthleteID reads the athlete summary Strava attaches to the token
// response; 0 when it is missing
func ExtractAthleteID(token *oauth2.Token) int64 {
	athlete, ok := token.Extra("athlete").(map[string]any)
	if !ok {
		return 0
	}
	switch id := athlete["id"].(type) {
	case float64:
		return int64(id)
	case int64:
		return id
	}
	return 0
}
