package service

import "errors"

var (
	ErrFunnelNotFound   = errors.New("funnel not found")
	ErrForbidden        = errors.New("funnel belongs to another editor")
	ErrInvalidFunnel    = errors.New("invalid funnel")
	ErrTemplateNotFound = errors.New("template not found")
	ErrSessionNotFound  = errors.New("play session not found or expired")
	ErrInvalidLead      = errors.New("invalid lead")
	ErrInvalidClick     = errors.New("invalid click event")
)
