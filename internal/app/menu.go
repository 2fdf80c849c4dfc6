package app

import (
	"log/slog"

	tele "gopkg.in/telebot.v4"

	"github.com/mkamenev/clinicbot/core/logger"
	coretelegram "github.com/mkamenev/clinicbot/core/telegram"
	"github.com/mkamenev/clinicbot/core/telegram/callbacks"
	"github.com/mkamenev/clinicbot/core/telegram/commands"
	"github.com/mkamenev/clinicbot/core/telegram/helpers"
	"github.com/mkamenev/clinicbot/core/telegram/keyboard"
	"github.com/mkamenev/clinicbot/internal/flows"
	"github.com/mkamenev/clinicbot/internal/stats"
)

const (
	textMainMenu    = "Здравствуйте! Это бот клиники.\nЗдесь можно записаться на консультацию, заказать обратный звонок и оставить отзыв."
	textAdminPanel  = "Панель администратора."
	textDoctorsMenu = "Управление врачами."
	textAdminsMenu  = "Управление администраторами."
	textStatsMenu   = "Статистика. Выберите период."

	defaultContacts    = "Телефон клиники: +7 (800) 000-00-00"
	defaultInstruction = "Выберите действие в меню. Запись на консультацию занимает пару минут."
)

func backRow(section string) keyboard.InlineBtn {
	return keyboard.InlineBtn{Text: "⬅️ Назад", Unique: section}
}

func (a *App) mainMenuMarkup(c tele.Context) *tele.ReplyMarkup {
	buttons := []keyboard.InlineBtn{
		{Text: "📅 Записаться на консультацию", Unique: flows.KeyAppointment},
		{Text: "📞 Заказать обратный звонок", Unique: flows.KeyCallbackReq},
		{Text: "⭐ Оставить отзыв", Unique: flows.KeyFeedback},
		{Text: "📄 Инструкция", Unique: flows.KeyInstruction},
		{Text: "ℹ️ Контакты", Unique: flows.KeyContacts},
	}
	ctx := helpers.BuildContext(c)
	isAdmin, err := a.access.IsAdmin(ctx, c.Sender().ID)
	if err != nil {
		logger.TWire.LogAttrs(ctx, slog.LevelWarn, "menu.admin_check_failed",
			slog.Any("error", err))
	}
	if isAdmin {
		buttons = append(buttons, keyboard.InlineBtn{Text: "⚙️ Админ-панель", Unique: flows.KeyAdminPanel})
	}
	return keyboard.InlineButtons(buttons)
}

func adminPanelMarkup() *tele.ReplyMarkup {
	return keyboard.InlineButtons([]keyboard.InlineBtn{
		{Text: "👨‍⚕️ Врачи", Unique: flows.KeyDoctorsMenu},
		{Text: "👤 Администраторы", Unique: flows.KeyAdminsMenu},
		{Text: "📊 Статистика", Unique: flows.KeyStatsMenu},
		backRow(flows.KeyMainMenu),
	})
}

func doctorsMenuMarkup() *tele.ReplyMarkup {
	return keyboard.InlineButtons([]keyboard.InlineBtn{
		{Text: "➕ Добавить врача", Unique: flows.KeyDoctorCreate},
		{Text: "✏️ Изменить врача", Unique: flows.KeyDoctorUpdate},
		{Text: "➖ Удалить врача", Unique: flows.KeyDoctorDelete},
		{Text: "👁 Карточка врача", Unique: flows.KeyDoctorShow},
		backRow(flows.KeyAdminPanel),
	})
}

func adminsMenuMarkup() *tele.ReplyMarkup {
	return keyboard.InlineButtons([]keyboard.InlineBtn{
		{Text: "➕ Добавить администратора", Unique: flows.KeyAdminCreate},
		{Text: "➖ Удалить администратора", Unique: flows.KeyAdminDelete},
		backRow(flows.KeyAdminPanel),
	})
}

func statsMenuMarkup() *tele.ReplyMarkup {
	return keyboard.InlineButtons([]keyboard.InlineBtn{
		{Text: "За день", Unique: flows.KeyStatsPeriod, Data: string(stats.PeriodDay)},
		{Text: "За неделю", Unique: flows.KeyStatsPeriod, Data: string(stats.PeriodWeek)},
		{Text: "За месяц", Unique: flows.KeyStatsPeriod, Data: string(stats.PeriodMonth)},
		{Text: "За квартал", Unique: flows.KeyStatsPeriod, Data: string(stats.PeriodQuarter)},
		{Text: "За год", Unique: flows.KeyStatsPeriod, Data: string(stats.PeriodYear)},
		{Text: "Свой период", Unique: flows.KeyStatsCustom},
		backRow(flows.KeyAdminPanel),
	})
}

// registerHandlers wires commands, menu navigation, and flow entries into
// the registry.
func (a *App) registerHandlers(reg *coretelegram.Registry) {
	reg.RegisterCommand("/start", commands.Command{
		Description: "Главное меню",
		Handler: func(c tele.Context) error {
			ctx := helpers.BuildContext(c)
			sender := c.Sender()
			if err := a.store.EnsureUser(ctx, sender.ID, sender.Username, senderName(sender)); err != nil {
				return err
			}
			if err := a.engine.Abort(ctx, sender.ID); err != nil {
				return err
			}
			return helpers.SendText(c, textMainMenu, a.mainMenuMarkup(c))
		},
	})

	screen := func(text func(c tele.Context) string, markup func(c tele.Context) *tele.ReplyMarkup) tele.HandlerFunc {
		return func(c tele.Context) error {
			return helpers.EditOrSendText(c, text(c), markup(c))
		}
	}
	static := func(text string, markup *tele.ReplyMarkup) tele.HandlerFunc {
		return screen(
			func(tele.Context) string { return text },
			func(tele.Context) *tele.ReplyMarkup { return markup },
		)
	}

	contacts := a.cfg.Clinic.Contacts
	if contacts == "" {
		contacts = defaultContacts
	}
	instruction := a.cfg.Clinic.Instruction
	if instruction == "" {
		instruction = defaultInstruction
	}

	_ = reg.RegisterCallback(flows.KeyMainMenu, screen(
		func(tele.Context) string { return textMainMenu },
		a.mainMenuMarkup,
	))
	_ = reg.RegisterCallback(flows.KeyAdminPanel, static(textAdminPanel, adminPanelMarkup()))
	_ = reg.RegisterCallback(flows.KeyDoctorsMenu, static(textDoctorsMenu, doctorsMenuMarkup()))
	_ = reg.RegisterCallback(flows.KeyAdminsMenu, static(textAdminsMenu, adminsMenuMarkup()))
	_ = reg.RegisterCallback(flows.KeyStatsMenu, static(textStatsMenu, statsMenuMarkup()))
	_ = reg.RegisterCallback(flows.KeyContacts, static(contacts,
		keyboard.InlineButtons([]keyboard.InlineBtn{backRow(flows.KeyMainMenu)})))
	_ = reg.RegisterCallback(flows.KeyInstruction, static(instruction,
		keyboard.InlineButtons([]keyboard.InlineBtn{backRow(flows.KeyMainMenu)})))

	for key, kind := range flows.EntryKinds() {
		entryKind := kind
		entryKey := key
		_ = reg.RegisterCallback(entryKey, func(c tele.Context) error {
			ctx := helpers.BuildContext(c)
			payload := callbacks.Payload(c)
			err := a.engine.Start(ctx, entryKind, buttonEvent(c, entryKey, payload), renderer{c: c})
			return notifyFlowFailure(ctx, a.engine, c, err)
		})
	}

	_ = reg.RegisterCallback(flows.KeyStatsPeriod, func(c tele.Context) error {
		ctx := helpers.BuildContext(c)
		p := stats.Period(callbacks.Payload(c))
		if !p.Valid() {
			return nil
		}
		var messageID int
		if cb := c.Callback(); cb != nil && cb.Message != nil {
			messageID = cb.Message.ID
		}
		return a.env.ShowPeriodStats(ctx, p, c.Sender().ID, messageID, renderer{c: c})
	})
}
