package flows

import (
	"fmt"
	"strings"

	"github.com/mkamenev/clinicbot/internal/domain"
)

// User-facing texts. Kept in one place so flow handlers stay readable.
const (
	textLackOfPrivileges = "Недостаточно прав для этого действия."

	textChooseSpecialities = "Выберите специальности врача или добавьте новые.\n" +
		"Выбранные отмечены галочкой."
	textEnterNewSpecialities = "Введите новые специальности через запятую."
	textNoSpecialitySelected = "Нужно выбрать хотя бы одну специальность."
	textEnterDoctorName      = "Введите ФИО врача."
	textSendDoctorPhoto      = "Отправьте фотографию врача файлом (документом)."
	textPhotoAsDocument      = "Фотографию нужно отправить именно файлом. Попробуйте ещё раз."
	textEnterDescription     = "Введите описание врача."
	textAskExperience        = "Указать стаж работы врача?"
	textEnterExperience      = "Введите стаж работы в годах (целое число)."
	textChooseDegree         = "Выберите учёную степень врача."
	textChooseQual           = "Выберите квалификационную категорию врача."
	textBadInteger           = "Нужно ввести целое число. Попробуйте ещё раз."
	textDoctorCreated        = "Врач добавлен."
	textDoctorUpdated        = "Данные врача обновлены."
	textDoctorDeleted        = "Врач удалён."
	textChooseDoctor         = "Выберите врача."
	textChooseDoctorCard     = "Выберите врача, чтобы посмотреть карточку."
	textNoDoctors            = "Пока нет ни одного врача."
	textChooseSection        = "Что нужно изменить?"
	textChooseSpecAction     = "Добавить или удалить специальности?"
	textCannotDeleteAllSpecs = "Нельзя удалить все специальности: у врача должна остаться хотя бы одна."
	textConfirmDeleteDoctor  = "Удалить врача %s? Действие необратимо."

	textEnterAdminUID   = "Введите Telegram UID нового администратора."
	textAdminExists     = "Администратор с таким UID уже существует."
	textEnterAdminName  = "Введите имя администратора."
	textChoosePrivilege = "Выберите уровень привилегий."
	textAdminCreated    = "Администратор добавлен."
	textAdminDeleted    = "Администратор удалён."
	textChooseAdmin     = "Выберите администратора для удаления."
	textNoAdmins        = "Список администраторов пуст."
	textConfirmAdmin    = "Добавить администратора?\n\nUID: %d\nИмя: %s\nПривилегии: %s"
	textConfirmDelAdmin = "Удалить администратора с UID %d?"

	textChooseConsType   = "Выберите формат консультации."
	textChooseSpeciality = "Выберите специальность."
	textNoSpecialities   = "Пока нет доступных специальностей."
	textEnterRequest     = "Опишите, что вас беспокоит."
	textAskPreferableDT  = "Хотите указать желаемые дату и время консультации?"
	textEnterDT          = "Напишите желаемые дату и время."
	textChooseComType    = "Как с вами удобнее связаться?"
	textEnterPhone       = "Введите номер телефона."
	textBadPhone         = "Номер телефона выглядит некорректно. Попробуйте ещё раз."
	textEnterFullName    = "Введите ваше ФИО."
	textPayPrompt        = "Для записи на онлайн-консультацию нужно оплатить приём.\nСумма: %d руб."
	textOfflineDone      = "Заявка принята. Администратор свяжется с вами для подтверждения записи."
	textOnlineDoneLink   = "Оплата получена, вы записаны.\n\nСсылка на консультацию: %s"
	textOnlineDoneNoLink = "Оплата получена, вы записаны.\nСсылку на консультацию пришлёт администратор."
	textConfirmBooking   = "Подтвердите запись."

	textEnterCallbackName  = "Введите ваше имя."
	textEnterCallbackPhone = "Введите номер телефона, мы перезвоним."
	textCallbackDone       = "Спасибо! Мы перезвоним вам в ближайшее время."

	textEnterFeedback   = "Напишите ваш отзыв одним сообщением."
	textConfirmFeedback = "Отправить этот отзыв?\n\n%s"
	textFeedbackDone    = "Спасибо за отзыв!"

	textEnterStatsPeriod = "Введите период двумя датами в формате ДД-ММ-ГГГГ, например:\n01-03-2026 31-03-2026"
	textBadStatsPeriod   = "Не удалось разобрать период. Нужны две даты в формате ДД-ММ-ГГГГ."

	textBtnBack      = "⬅️ Назад"
	textBtnToDoctors = "⬅️ К списку врачей"
	textBtnConfirm   = "✅ Подтвердить"
	textBtnYes       = "Да"
	textBtnNo        = "Нет"
	textBtnSkip      = "Пропустить"
	textBtnDone      = "Готово ✅"
	textBtnAddNew    = "➕ Добавить новые"
	textBtnPrev      = "◀️"
	textBtnNext      = "▶️"
	textBtnPay       = "💳 Оплатить"
)

func textEnterPrice(speciality string) string {
	return fmt.Sprintf("Введите цену консультации по специальности «%s» (в рублях, целое число).", speciality)
}

func textChosenSpeciality(title string) string {
	return fmt.Sprintf("Специальность: %s\nНиже — карточки доступных врачей.", title)
}

func textBtnPickDoctor(price int) string {
	return fmt.Sprintf("Выбрать — %d руб.", price)
}

func textDoctorSummary(d *DoctorScratchView) string {
	var b strings.Builder
	b.WriteString("Проверьте данные врача:\n\n")
	fmt.Fprintf(&b, "ФИО: %s\n", d.Name)
	fmt.Fprintf(&b, "Описание: %s\n", d.Description)
	if d.Experience != nil {
		fmt.Fprintf(&b, "Стаж: %d лет\n", *d.Experience)
	}
	if d.ScienceDegree != nil {
		fmt.Fprintf(&b, "Учёная степень: %s\n", *d.ScienceDegree)
	}
	if d.QualCategory != nil {
		fmt.Fprintf(&b, "Категория: %s\n", *d.QualCategory)
	}
	b.WriteString("\nСпециальности:\n")
	for i, s := range d.Selected {
		fmt.Fprintf(&b, "• %s — %d руб.\n", s, d.Prices[i])
	}
	return b.String()
}

// DoctorScratchView is the subset of the doctor scratch the summary needs.
type DoctorScratchView struct {
	Name          string
	Description   string
	Experience    *int
	ScienceDegree *string
	QualCategory  *string
	Selected      []string
	Prices        []int
}

func textDoctorCard(d domain.Doctor, specs []domain.SpecialityPrice) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n%s\n", d.Name, d.Description)
	if d.Experience != nil {
		fmt.Fprintf(&b, "Стаж: %d лет\n", *d.Experience)
	}
	if d.ScienceDegree != nil {
		fmt.Fprintf(&b, "Учёная степень: %s\n", *d.ScienceDegree)
	}
	if d.QualCategory != nil {
		fmt.Fprintf(&b, "Категория: %s\n", *d.QualCategory)
	}
	if len(specs) > 0 {
		b.WriteString("\nСпециальности:\n")
		for _, s := range specs {
			fmt.Fprintf(&b, "• %s — %d руб.\n", s.Title, s.Price)
		}
	}
	return b.String()
}

func textBookingSummary(consType, speciality, doctor, request, dt string, price int) string {
	var b strings.Builder
	b.WriteString("Проверьте данные записи:\n\n")
	if consType == string(domain.ConsultationOnline) {
		b.WriteString("Формат: онлайн\n")
	} else {
		b.WriteString("Формат: очно\n")
	}
	if speciality != "" {
		fmt.Fprintf(&b, "Специальность: %s\n", speciality)
	}
	if doctor != "" {
		fmt.Fprintf(&b, "Врач: %s\n", doctor)
	}
	if price > 0 {
		fmt.Fprintf(&b, "Цена: %d руб.\n", price)
	}
	fmt.Fprintf(&b, "Запрос: %s\n", request)
	if dt != "" {
		fmt.Fprintf(&b, "Желаемое время: %s\n", dt)
	}
	return b.String()
}
