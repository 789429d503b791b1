// syncwatch acompanha a agenda em tempo real pelo terminal: conecta
// no canal WebSocket, reconcilia o cache local via REST e imprime as
// consultas relevantes para a identidade informada.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BruksfildServices01/clinic-scheduler/pkg/livesync"
)

func main() {
	var (
		apiBase      = flag.String("api", "http://localhost:8080/api", "URL base da API REST")
		wsOverride   = flag.String("ws", "", "URL do WebSocket (opcional, derivada da API se vazia)")
		token        = flag.String("token", "", "token JWT da sessão")
		userType     = flag.String("user-type", "", "doctor ou patient")
		doctorID     = flag.Uint("doctor-id", 0, "id do médico (user-type=doctor)")
		patientEmail = flag.String("patient-email", "", "e-mail do paciente (user-type=patient)")
	)
	flag.Parse()

	identity := livesync.Identity{
		UserType:     *userType,
		DoctorID:     *doctorID,
		PatientEmail: *patientEmail,
	}

	switch *userType {
	case livesync.UserTypeDoctor:
		if *doctorID == 0 {
			log.Fatal("syncwatch: --doctor-id é obrigatório para user-type=doctor")
		}
	case livesync.UserTypePatient:
		if *patientEmail == "" {
			log.Fatal("syncwatch: --patient-email é obrigatório para user-type=patient")
		}
	default:
		log.Fatal("syncwatch: --user-type deve ser doctor ou patient")
	}

	if *token == "" {
		log.Fatal("syncwatch: --token é obrigatório")
	}

	fetch := livesync.HTTPFetcher(*apiBase, *token, nil)

	rec := livesync.NewReconciler(identity, fetch, func(eventType string, r livesync.AppointmentRecord) {
		fmt.Printf("[%s] %s %s — %s (%s) status=%s\n",
			eventType, r.Date, r.Time, r.PatientName, r.DoctorName, r.Status)
	})

	mgr := livesync.NewManager(livesync.Options{
		URL:      livesync.Endpoint(*wsOverride, *apiBase),
		Identity: identity,
		OnStateChange: func(s livesync.State) {
			fmt.Printf("-- conexão: %s\n", s)
		},
	})

	unbind := rec.Bind(mgr.Dispatcher())
	defer unbind()

	// estado inicial vem do REST; os eventos mantêm a partir daí
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	if err := rec.Resync(ctx); err != nil {
		log.Printf("syncwatch: resync inicial falhou: %v", err)
	}
	cancel()

	for _, r := range rec.Snapshot() {
		fmt.Printf("   %s %s — %s (%s) status=%s\n",
			r.Date, r.Time, r.PatientName, r.DoctorName, r.Status)
	}

	mgr.Connect()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	mgr.Close()
}
