package vkdriver

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/vulkan-go/vulkan"

	"github.com/RewHiro/vulkan/internal/render"
)

// ResultError is a failed Vulkan call.
type ResultError struct {
	Op     string
	Result vulkan.Result
}

func (e *ResultError) Error() string {
	return fmt.Sprintf("%s: %v (%d)", e.Op, vulkan.Error(e.Result), e.Result)
}

// check turns a Vulkan result into an error. Timeouts and out-of-date
// swapchains carry the render sentinels.
func check(res vulkan.Result, op string) error {
	switch res {
	case vulkan.Success:
		return nil
	case vulkan.Timeout:
		return errors.Mark(&ResultError{Op: op, Result: res}, render.ErrTimeout)
	case vulkan.ErrorOutOfDate:
		return errors.Mark(&ResultError{Op: op, Result: res}, render.ErrOutOfDate)
	}
	return &ResultError{Op: op, Result: res}
}
