package service

import (
	"fmt"
	"time"

	"github.com/cuidador-digital/backend/internal/entity"
)

// Canned pt-BR message texts sent through the gateway. The response
// codes patients reply with are the bare digits 1, 2 and 3.
const (
	responseCodeTaken    = "1"
	responseCodeNotTaken = "2"
	responseCodeDelay    = "3"
	optOutKeyword        = "sair"
)

func reminderMessage(patientName, medicationName, dosage string) string {
	return fmt.Sprintf(
		"Olá, %s 👋 — Hora do remédio %s (%s). Responda: 1) ✅ Tomei 2) ❌ Não tomei 3) ⏳ Adiar 10 min.",
		patientName, medicationName, dosage,
	)
}

func confirmationMessage(code, patientName string) string {
	switch code {
	case responseCodeTaken:
		return fmt.Sprintf("Perfeito, %s! ✔️ Registramos que você tomou o medicamento. Obrigado!", patientName)
	case responseCodeNotTaken:
		return "Entendido. Foi registrado que o medicamento não foi tomado. Se precisar de ajuda, fale com seu responsável."
	case responseCodeDelay:
		return "Ok, vamos lembrar de novo em 10 minutos — responda 1 quando tomar :)"
	}
	return fallbackMessage()
}

func alertMessage(patientName, medicationName, scheduledTime string) string {
	return fmt.Sprintf(
		"⚠️ ALERTA: %s não confirmou o medicamento %s das %s.\n\nÚltimo lembrete enviado há mais de 20 minutos sem resposta.",
		patientName, medicationName, scheduledTime,
	)
}

func dailyReportMessage(patientName string, stats *entity.AdherenceStats, day time.Time) string {
	return fmt.Sprintf(
		"📊 Relatório diário — %s\n\n✅ Tomados: %d/%d\n❌ Não tomados: %d\n⏳ Adiados: %d\n⚠️ Sem resposta: %d\n\nData: %s",
		patientName, stats.Taken, stats.Total(), stats.NotTaken, stats.Delayed, stats.NoResponse,
		day.Format("02/01/2006"),
	)
}

func optOutMessage(patientName string) string {
	return fmt.Sprintf(
		"%s, os lembretes foram interrompidos conforme solicitado.\n\nPara reativar, entre em contato com seu responsável.\n\nCuide-se! 💙",
		patientName,
	)
}

func fallbackMessage() string {
	return "Resposta não reconhecida. Responda:\n1 - Tomei\n2 - Não tomei\n3 - Adiar\nOu envie \"SAIR\" para parar."
}

func welcomeMessage(patientName string) string {
	return fmt.Sprintf(
		"Olá, %s! 👋\n\nSou o Cuidador Digital e vou te ajudar a lembrar dos seus medicamentos.\n\n"+
			"Quando receber um lembrete, responda:\n1️⃣ para \"Tomei\"\n2️⃣ para \"Não tomei\"\n3️⃣ para \"Adiar 10 min\"\n\n"+
			"Para parar os lembretes, envie \"SAIR\".\n\nVamos cuidar da sua saúde juntos! 💙",
		patientName,
	)
}
