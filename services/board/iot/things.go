package iot

import "boardcode-go/types"

func init() {
	RegisterBuilder("Speaker", speaker)
	RegisterBuilder("Lamp", lamp)
}

func speaker() types.ThingDescriptor {
	volume := types.ThingProperty{Name: "volume", Description: "Current volume", Type: "number"}
	return types.ThingDescriptor{
		Description: "Speaker",
		Properties:  []types.ThingProperty{volume},
		Methods: []types.ThingMethod{{
			Name:        "SetVolume",
			Description: "Set the output volume",
			Params:      []types.ThingProperty{{Name: "volume", Description: "An integer between 0 and 100", Type: "number"}},
		}},
	}
}

func lamp() types.ThingDescriptor {
	return types.ThingDescriptor{
		Description: "A test lamp",
		Properties:  []types.ThingProperty{{Name: "power", Description: "Whether the lamp is on", Type: "boolean"}},
		Methods: []types.ThingMethod{
			{Name: "TurnOn", Description: "Turn the lamp on"},
			{Name: "TurnOff", Description: "Turn the lamp off"},
		},
	}
}
