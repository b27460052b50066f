package dshot

// Command is a DShot special command, sent in place of a throttle value.
// Most commands are only honoured with the motor stopped and need repeating
// (typically 6-10 frames) before the ESC acts on them.
type Command uint16

const (
	CmdMotorStop Command = iota
	CmdBeacon1
	CmdBeacon2
	CmdBeacon3
	CmdBeacon4
	CmdBeacon5
	CmdESCInfo
	CmdSpinDirection1
	CmdSpinDirection2
	Cmd3DModeOff
	Cmd3DModeOn
	CmdSettingsRequest
	CmdSaveSettings
	CmdExtendedTelemetryEnable
	CmdExtendedTelemetryDisable
)

const (
	CmdSpinDirectionNormal   Command = 20
	CmdSpinDirectionReversed Command = 21
	CmdLED0On                Command = 22
	CmdLED1On                Command = 23
	CmdLED2On                Command = 24
	CmdLED3On                Command = 25
	CmdLED0Off               Command = 26
	CmdLED1Off               Command = 27
	CmdLED2Off               Command = 28
	CmdLED3Off               Command = 29
	CmdAudioStreamModeOnOff  Command = 30
	CmdSilentModeOnOff       Command = 31
	CmdMax                   Command = 47
)

var commandNames = map[Command]string{
	CmdMotorStop:                "motor_stop",
	CmdBeacon1:                  "beacon1",
	CmdBeacon2:                  "beacon2",
	CmdBeacon3:                  "beacon3",
	CmdBeacon4:                  "beacon4",
	CmdBeacon5:                  "beacon5",
	CmdESCInfo:                  "esc_info",
	CmdSpinDirection1:           "spin_direction_1",
	CmdSpinDirection2:           "spin_direction_2",
	Cmd3DModeOff:                "3d_mode_off",
	Cmd3DModeOn:                 "3d_mode_on",
	CmdSettingsRequest:          "settings_request",
	CmdSaveSettings:             "save_settings",
	CmdExtendedTelemetryEnable:  "extended_telemetry_enable",
	CmdExtendedTelemetryDisable: "extended_telemetry_disable",
	CmdSpinDirectionNormal:      "spin_direction_normal",
	CmdSpinDirectionReversed:    "spin_direction_reversed",
	CmdLED0On:                   "led0_on",
	CmdLED1On:                   "led1_on",
	CmdLED2On:                   "led2_on",
	CmdLED3On:                   "led3_on",
	CmdLED0Off:                  "led0_off",
	CmdLED1Off:                  "led1_off",
	CmdLED2Off:                  "led2_off",
	CmdLED3Off:                  "led3_off",
	CmdAudioStreamModeOnOff:     "audio_stream_mode_on_off",
	CmdSilentModeOnOff:          "silent_mode_on_off",
}

// String returns the snake_case name of c, or "" for unnamed codes.
func (c Command) String() string { return commandNames[c] }

// Valid reports whether c fits in the command range.
func (c Command) Valid() bool { return c <= CmdMax }

// CommandByName resolves a snake_case command name.
func CommandByName(name string) (Command, bool) {
	for c, n := range commandNames {
		if n == name {
			return c, true
		}
	}
	return 0, false
}
