package handlers

import (
	"errors"
	"strconv"

	"ticketlogger/internal/domain"
	"ticketlogger/internal/i18n"
	applog "ticketlogger/internal/log"
	"ticketlogger/internal/services"
	"ticketlogger/internal/validate"

	"github.com/gofiber/fiber/v2"
	fsession "github.com/gofiber/fiber/v2/middleware/session"
)

const (
	sessionUserKey  = "user_id"
	sessionNonceKey = "oauth_nonce"
	flashErrorKey   = "flash_error"
	flashSuccessKey = "flash_success"
)

// Web carries what every page handler needs: the session store and the message bundle.
type Web struct {
	Sessions *fsession.Store
	I18n     *i18n.I18n
}

func (w *Web) t(c *fiber.Ctx, msgID string) string {
	return w.I18n.T(i18n.Lang(c), msgID, nil)
}

func (w *Web) render(c *fiber.Ctx, tmpl string, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}
	// Inject user if present
	if u, ok := c.Locals("user").(*domain.User); ok && u != nil {
		data["User"] = u
	}
	data["Lang"] = i18n.Lang(c)
	tok, _ := c.Locals("csrf").(string)
	if tok == "" {
		// Fallback: the middleware also mirrors the token into its cookie
		tok = c.Cookies("csrf_")
	}
	data["CSRFToken"] = tok

	errMsg, okMsg := w.takeFlash(c)
	if errMsg != "" {
		data["FlashError"] = errMsg
	}
	if okMsg != "" {
		data["FlashSuccess"] = okMsg
	}
	return c.Render(tmpl, data)
}

// ErrorPage renders error/403, error/404, error/500 or error/generic.
func (w *Web) ErrorPage(c *fiber.Ctx, code int, msgID string) error {
	tmpl := "error/generic"
	switch code {
	case fiber.StatusForbidden, fiber.StatusNotFound, fiber.StatusInternalServerError:
		tmpl = "error/" + strconv.Itoa(code)
	}
	if msgID == "" {
		msgID = "error.generic"
		switch code {
		case fiber.StatusForbidden, fiber.StatusNotFound, fiber.StatusInternalServerError:
			msgID = "error." + strconv.Itoa(code)
		}
	}
	return w.render(c.Status(code), tmpl, fiber.Map{
		"ErrorCode":    code,
		"ErrorMessage": w.t(c, msgID),
	})
}

func (w *Web) flashError(c *fiber.Ctx, msgID string)   { w.setFlash(c, flashErrorKey, w.t(c, msgID)) }
func (w *Web) flashSuccess(c *fiber.Ctx, msgID string) { w.setFlash(c, flashSuccessKey, w.t(c, msgID)) }

func (w *Web) setFlash(c *fiber.Ctx, key, msg string) {
	sess, err := w.Sessions.Get(c)
	if err != nil {
		applog.Error(c, "session.load.fail", err, nil)
		return
	}
	sess.Set(key, msg)
	if err := sess.Save(); err != nil {
		applog.Error(c, "session.save.fail", err, nil)
	}
}

// takeFlash reads and clears the pending flash messages.
func (w *Web) takeFlash(c *fiber.Ctx) (errMsg, okMsg string) {
	sess, err := w.Sessions.Get(c)
	if err != nil {
		return "", ""
	}
	errMsg, _ = sess.Get(flashErrorKey).(string)
	okMsg, _ = sess.Get(flashSuccessKey).(string)
	if errMsg == "" && okMsg == "" {
		return "", ""
	}
	sess.Delete(flashErrorKey)
	sess.Delete(flashSuccessKey)
	if err := sess.Save(); err != nil {
		applog.Error(c, "session.save.fail", err, nil)
	}
	return errMsg, okMsg
}

// fieldErrors translates validation failures keyed by form field.
func (w *Web) fieldErrors(c *fiber.Ctx, vs []validate.Violation) map[string]string {
	if len(vs) == 0 {
		return nil
	}
	out := make(map[string]string, len(vs))
	for _, v := range vs {
		if _, seen := out[v.Field]; seen {
			continue
		}
		out[v.Field] = w.I18n.T(i18n.Lang(c), "validation."+v.Tag, map[string]any{"Param": v.Param})
	}
	return out
}

// outcome describes where a write redirects and which messages it flashes.
type outcome struct {
	action    string
	list      string
	conflict  string
	okMsg     string
	failMsg   string
	conflicts map[error]string
}

func (w *Web) finish(c *fiber.Ctx, err error, o outcome, fields map[string]any) error {
	if err == nil {
		applog.Audit(c, o.action, fields)
		w.flashSuccess(c, o.okMsg)
		return c.Redirect(o.list)
	}
	if services.IsNotFound(err) {
		applog.Info(c, o.action+".not_found", fields)
		w.flashError(c, "flash.notFound")
		return c.Redirect(o.list)
	}
	for target, msgID := range o.conflicts {
		if errors.Is(err, target) {
			applog.Info(c, o.action+".rejected", mergeFields(fields, map[string]any{"reason": err.Error()}))
			w.flashError(c, msgID)
			dest := o.conflict
			if dest == "" {
				dest = o.list
			}
			return c.Redirect(dest)
		}
	}
	applog.Error(c, o.action+".fail", err, fields)
	w.flashError(c, o.failMsg)
	return c.Redirect(o.list)
}

func mergeFields(a, b map[string]any) map[string]any {
	out := make(map[string]any, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		out[k] = v
	}
	return out
}

// bind parses the request body into dst and validates it. A nil result means dst is usable.
func (w *Web) bind(c *fiber.Ctx, dst any) map[string]string {
	if err := c.BodyParser(dst); err != nil {
		applog.Info(c, "form.bind.fail", map[string]any{"reason": err.Error()})
		return map[string]string{"form": w.t(c, "validation.invalid")}
	}
	return w.fieldErrors(c, validate.Struct(dst))
}

func (w *Web) missing(c *fiber.Ctx, list string) error {
	w.flashError(c, "flash.notFound")
	return c.Redirect(list)
}

func (w *Web) loadFailed(c *fiber.Ctx, err error, action, list string, id int64) error {
	if services.IsNotFound(err) {
		applog.Info(c, action+".not_found", map[string]any{"id": id})
		return w.missing(c, list)
	}
	applog.Error(c, action+".fail", err, map[string]any{"id": id})
	w.flashError(c, "flash.listError")
	return c.Redirect(list)
}
