package flows

import (
	"fmt"
	"slices"
	"strconv"

	tele "gopkg.in/telebot.v4"

	"github.com/mkamenev/clinicbot/core/telegram/keyboard"
	"github.com/mkamenev/clinicbot/internal/domain"
)

type markup = tele.ReplyMarkup

func backBtn(section string) keyboard.InlineBtn {
	return keyboard.InlineBtn{Text: textBtnBack, Unique: section}
}

// backToMenuMarkup is a single back button into the given menu section.
func backToMenuMarkup(section string) *markup {
	return keyboard.InlineButtons([]keyboard.InlineBtn{backBtn(section)})
}

// specSelectionMarkup renders the speciality catalog as toggle buttons.
// Payloads carry the pool index so callback data stays short regardless of
// the title length. Selected entries are marked with a check.
func specSelectionMarkup(pool, selected []string, perRow int, allowNew bool, backSection string) *markup {
	buttons := make([]keyboard.InlineBtn, 0, len(pool))
	for i, title := range pool {
		label := title
		if slices.Contains(selected, title) {
			label = "✅ " + title
		}
		buttons = append(buttons, keyboard.InlineBtn{
			Text:   label,
			Unique: KeySpecPick,
			Data:   strconv.Itoa(i),
		})
	}
	m := keyboard.InlineButtonsNPerRow(buttons, perRow)

	var extra []tele.InlineButton
	if allowNew {
		extra = append(extra, *m.Data(textBtnAddNew, KeySpecNew).Inline())
	}
	extra = append(extra, *m.Data(textBtnDone, KeySpecDone).Inline())
	b := backBtn(backSection)
	m.InlineKeyboard = append(m.InlineKeyboard,
		extra,
		[]tele.InlineButton{*m.Data(b.Text, b.Unique).Inline()},
	)
	return m
}

func yesNoMarkup(key, backSection string) *markup {
	return keyboard.InlineButtonsRows(
		[]keyboard.InlineBtn{
			{Text: textBtnYes, Unique: key, Data: "yes"},
			{Text: textBtnNo, Unique: key, Data: "no"},
		},
		[]keyboard.InlineBtn{backBtn(backSection)},
	)
}

func degreeMarkup(backSection string) *markup {
	return optionListMarkup(KeyDegree, domain.ScienceDegrees(), backSection)
}

func qualMarkup(backSection string) *markup {
	return optionListMarkup(KeyQual, domain.QualCategories(), backSection)
}

// optionListMarkup lists values one per row, each carrying itself as payload,
// with a skip option and a back button.
func optionListMarkup(key string, values []string, backSection string) *markup {
	buttons := make([]keyboard.InlineBtn, 0, len(values)+2)
	for _, v := range values {
		buttons = append(buttons, keyboard.InlineBtn{Text: v, Unique: key, Data: v})
	}
	buttons = append(buttons,
		keyboard.InlineBtn{Text: textBtnSkip, Unique: key, Data: payloadNone},
		backBtn(backSection),
	)
	return keyboard.InlineButtons(buttons)
}

func confirmMarkup(backSection string) *markup {
	return keyboard.InlineButtons([]keyboard.InlineBtn{
		{Text: textBtnConfirm, Unique: KeyConfirm, Data: "yes"},
		backBtn(backSection),
	})
}

func doctorsListMarkup(doctors []domain.Doctor, key, backSection string) *markup {
	buttons := make([]keyboard.InlineBtn, 0, len(doctors)+1)
	for _, d := range doctors {
		buttons = append(buttons, keyboard.InlineBtn{
			Text:   d.Name,
			Unique: key,
			Data:   strconv.FormatInt(d.ID, 10),
		})
	}
	buttons = append(buttons, backBtn(backSection))
	return keyboard.InlineButtons(buttons)
}

// doctorPickMarkup is the single choose button attached to one doctor card
// during booking.
func doctorPickMarkup(doctorID int64, price int) *markup {
	return keyboard.InlineButtons([]keyboard.InlineBtn{{
		Text:   textBtnPickDoctor(price),
		Unique: KeyDoctorPick,
		Data:   strconv.FormatInt(doctorID, 10),
	}})
}

// cardMarkup navigates out of a doctor card: back to the doctor list or to
// the doctors menu.
func cardMarkup() *markup {
	return keyboard.InlineButtonsRows(
		[]keyboard.InlineBtn{{Text: textBtnToDoctors, Unique: KeyCardBack}},
		[]keyboard.InlineBtn{backBtn(KeyDoctorsMenu)},
	)
}

func sectionMarkup() *markup {
	return keyboard.InlineButtons([]keyboard.InlineBtn{
		{Text: "ФИО", Unique: KeyDocSection, Data: "name"},
		{Text: "Фотография", Unique: KeyDocSection, Data: "photo"},
		{Text: "Описание", Unique: KeyDocSection, Data: "description"},
		{Text: "Специальности", Unique: KeyDocSection, Data: "specs"},
		backBtn(KeyDoctorsMenu),
	})
}

func specActionMarkup() *markup {
	return keyboard.InlineButtons([]keyboard.InlineBtn{
		{Text: "➕ Добавить", Unique: KeySpecAction, Data: "add"},
		{Text: "➖ Удалить", Unique: KeySpecAction, Data: "delete"},
		backBtn(KeyDoctorsMenu),
	})
}

func adminsListMarkup(admins []domain.Admin) *markup {
	buttons := make([]keyboard.InlineBtn, 0, len(admins)+1)
	for _, a := range admins {
		buttons = append(buttons, keyboard.InlineBtn{
			Text:   fmt.Sprintf("%s (%d)", a.Name, a.TgUID),
			Unique: KeyAdminPick,
			Data:   strconv.FormatInt(a.TgUID, 10),
		})
	}
	buttons = append(buttons, backBtn(KeyAdminsMenu))
	return keyboard.InlineButtons(buttons)
}

func privilegeMarkup() *markup {
	return keyboard.InlineButtons([]keyboard.InlineBtn{
		{Text: "Высокие", Unique: KeyPrivilege, Data: string(domain.PrivilegeHigh)},
		{Text: "Обычные", Unique: KeyPrivilege, Data: string(domain.PrivilegeLow)},
		backBtn(KeyAdminsMenu),
	})
}

func consTypeMarkup() *markup {
	return keyboard.InlineButtons([]keyboard.InlineBtn{
		{Text: "💻 Онлайн", Unique: KeyConsType, Data: string(domain.ConsultationOnline)},
		{Text: "🏥 Очно", Unique: KeyConsType, Data: string(domain.ConsultationOffline)},
		backBtn(KeyMainMenu),
	})
}

// specialityPageMarkup renders one page of the speciality catalog with
// navigation arrows when neighbouring pages exist.
func specialityPageMarkup(pool []string, p Pager, backSection string) *markup {
	from, to := p.Bounds()
	buttons := make([]keyboard.InlineBtn, 0, to-from)
	for i := from; i < to; i++ {
		buttons = append(buttons, keyboard.InlineBtn{
			Text:   pool[i],
			Unique: KeySpecPick,
			Data:   strconv.Itoa(i),
		})
	}
	m := keyboard.InlineButtons(buttons)

	var nav []tele.InlineButton
	if p.HasPrev() {
		nav = append(nav, *m.Data(textBtnPrev, KeyNavPrev, strconv.Itoa(p.Page-1)).Inline())
	}
	if p.HasNext() {
		nav = append(nav, *m.Data(textBtnNext, KeyNavNext, strconv.Itoa(p.Page+1)).Inline())
	}
	if len(nav) > 0 {
		m.InlineKeyboard = append(m.InlineKeyboard, nav)
	}
	b := backBtn(backSection)
	m.InlineKeyboard = append(m.InlineKeyboard, []tele.InlineButton{*m.Data(b.Text, b.Unique).Inline()})
	return m
}

func comTypeMarkup() *markup {
	return keyboard.InlineButtons([]keyboard.InlineBtn{
		{Text: "📞 Звонок", Unique: KeyComType, Data: string(domain.CommunicationCall)},
		{Text: "💬 Чат", Unique: KeyComType, Data: string(domain.CommunicationChat)},
		backBtn(KeyMainMenu),
	})
}

func payMarkup() *markup {
	return keyboard.InlineButtons([]keyboard.InlineBtn{
		{Text: textBtnPay, Unique: KeyPay},
		backBtn(KeyMainMenu),
	})
}
