package handlers

import "github.com/khanghh/signup-otp/internal/signup"

type FlowRegistry interface {
	Create() *signup.Controller
	Get(id string) (*signup.Controller, error)
}
