package model

import "github.com/golang-jwt/jwt/v5"

// EditorClaims are JWT claims for editor authentication
type EditorClaims struct {
	EditorID string `json:"editorId"`
	jwt.RegisteredClaims
}

// LoginRequest is the request body for editor login
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is returned after successful login
type LoginResponse struct {
	Token    string `json:"token"`
	EditorID string `json:"editorId"`
}
