package handlers

import (
	"fmt"
	"net/url"

	"github.com/gofiber/fiber/v2"
)

// redirect sends a 303 so the browser follows up with a GET after a POST.
func redirect(ctx *fiber.Ctx, location string, pairs ...any) error {
	url, err := url.Parse(location)
	if err != nil {
		return err
	}

	query := url.Query()
	for i := 0; i+1 < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			return fmt.Errorf("key at position %d is not a string", i)
		}
		query.Set(key, fmt.Sprint(pairs[i+1]))
	}

	url.RawQuery = query.Encode()
	return ctx.Redirect(url.String(), fiber.StatusSeeOther)
}
