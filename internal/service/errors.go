package service

import (
	"formar_portal/internal/apiclient"
	"formar_portal/internal/util"
	"net/http"
)

// userFacing 将上游错误映射为面向用户的消息，401 统一为会话过期
func userFacing(err error, fallback string) error {
	if err == nil {
		return nil
	}
	if _, ok := util.AsUserError(err); ok {
		return err
	}

	status := apiclient.StatusOf(err)
	switch {
	case status == http.StatusUnauthorized:
		return util.WrapUserError(http.StatusUnauthorized, util.MsgSessionExpired, err)
	case status >= 400 && status < 500:
		return util.WrapUserError(status, apiclient.MessageOr(err, fallback), err)
	}
	return util.WrapUserError(http.StatusBadGateway, fallback, err)
}
