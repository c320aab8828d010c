// Package gate реализует проверку сессии перед защищенными действиями.
package gate

import (
	"context"

	"go.uber.org/zap"
)

// Checker проверяет валидность текущей сессии и наличие VIP
type Checker interface {
	CheckCookie(ctx context.Context) (valid, vip bool, err error)
}

// UI поверхность уведомлений и панели входа
type UI interface {
	// Toast показывает сообщение об ошибке
	Toast(message string)
	// Warn показывает предупреждение
	Warn(message string)
	// OpenLoginPanel открывает панель входа по QR-коду
	OpenLoginPanel()
}

// Gate охраняет действия, требующие валидной VIP сессии.
// Проверка выполняется перед каждым действием заново, без кэширования.
type Gate struct {
	checker Checker
	ui      UI
	logger  *zap.Logger
}

// New создает охрану сессии
func New(checker Checker, ui UI, logger *zap.Logger) *Gate {
	return &Gate{
		checker: checker,
		ui:      ui,
		logger:  logger,
	}
}

// Require выполняет action только при валидной VIP сессии.
// Возвращает true когда действие было вызвано.
//   - проверка не удалась: тост с ошибкой и панель входа
//   - сессия невалидна или истекла: предупреждение и панель входа
//   - сессия без VIP: предупреждение, действие не выполняется
func (g *Gate) Require(ctx context.Context, action func()) bool {
	valid, vip, err := g.checker.CheckCookie(ctx)
	if err != nil {
		g.logger.Warn("Session check failed", zap.Error(err))
		g.ui.Toast("无法检查登录状态")
		g.ui.OpenLoginPanel()
		return false
	}

	if !valid {
		g.ui.Warn("登录已失效，请重新登录")
		g.ui.OpenLoginPanel()
		return false
	}

	if !vip {
		g.ui.Warn("当前账号不是VIP，无法使用该功能")
		return false
	}

	action()
	return true
}
