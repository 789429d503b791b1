// Package livesync implementa o canal de sincronização em tempo real:
// o contrato de mensagens do WebSocket e o cliente que mantém uma
// conexão viva, despacha eventos e reconcilia o cache local de consultas.
package livesync

import (
	"encoding/json"
	"time"
)

// ======================================================
// Contrato de mensagens (servidor → cliente)
// ======================================================

const (
	EventAppointmentCreated = "appointment_created"
	EventAppointmentUpdated = "appointment_updated"
	EventDoctorRegistered   = "doctor_registered"
	EventPatientRegistered  = "patient_registered"
)

// Event é o envelope de todos os eventos do canal.
// Não carrega número de sequência nem timestamp: a ordem de entrega
// é a ordem de broadcast do servidor.
type Event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func NewEvent(eventType string, data any) (Event, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Event{}, err
	}
	return Event{Type: eventType, Data: raw}, nil
}

// ======================================================
// Handshake (cliente → servidor)
// ======================================================

const MessageTypeAuth = "auth"

const (
	UserTypeDoctor  = "doctor"
	UserTypePatient = "patient"
)

// AuthMessage é a primeira mensagem enviada após abrir a conexão.
// O servidor não guarda sessão: precisa ser reenviada a cada reconexão.
type AuthMessage struct {
	Type      string `json:"type"`
	UserType  string `json:"userType"`
	DoctorID  string `json:"doctorId,omitempty"`
	PatientID string `json:"patientId,omitempty"`
}

// ======================================================
// Payloads
// ======================================================

// AppointmentRecord é a consulta como trafega nos eventos e na
// listagem REST. Campos sensíveis (senhas) nunca entram aqui.
type AppointmentRecord struct {
	ID       uint `json:"id"`
	ClinicID uint `json:"clinic_id"`

	DoctorID       uint   `json:"doctor_id"`
	DoctorName     string `json:"doctor_name"`
	Specialization string `json:"specialization"`

	PatientName  string `json:"patient_name"`
	PatientEmail string `json:"patient_email"`
	PatientPhone string `json:"patient_phone"`

	Date string `json:"date"` // 2006-01-02
	Time string `json:"time"` // 15:04

	Reason    string    `json:"reason"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}
