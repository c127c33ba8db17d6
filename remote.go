package main

import (
	"servoap/servo"
)

func (app *App) onMQTTConnect() {
	app.setConnected(true)
}

func (app *App) onMQTTDisconnect() {
	app.setConnected(false)
}

// Remote commands arrive on the paho router and are queued for the job worker.

func (app *App) onRemoteRotate(dir servo.Direction, turns int) {
	app.enqueue(func() { app.servo.Rotate(dir, turns) })
}

func (app *App) onRemoteDuty(duty servo.Duty) {
	app.enqueue(func() { app.servo.HoldDuty(duty) })
}

func (app *App) onRemoteStop() {
	app.enqueue(app.servo.Stop)
}

// publishDuty reports every committed duty value.
func (app *App) publishDuty(d servo.Duty) {
	if app.mqtt == nil {
		return
	}
	app.mqtt.PublishDuty(d)
}
