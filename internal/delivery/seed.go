package delivery

// SeedDeliveries returns the demo deliveries loaded into an empty store.
func SeedDeliveries() []Delivery {
	return []Delivery{
		{Name: "John Doe", TimeWindow: "10am-3pm", Address: "6230 N Kenmore Ave Chicago Illinois 60660", Status: StatusPending},
		{Name: "Jane Doe", TimeWindow: "5pm-10pm", Address: "2250 N Sheffield Ave Chicago Illinois 60614", Status: StatusPending},
		{Name: "Alisha Dias", TimeWindow: "10am-1pm", Address: "6230 N Kenmore Ave Chicago Illinois 60660", Status: StatusPending},
		{Name: "Manvi Koli", TimeWindow: "10am-3pm", Address: "6230 N Kenmore Ave Chicago Illinois 60660", Status: StatusPending},
		{Name: "James Adams", TimeWindow: "10am-3pm", Address: "1 E Jackson Blvd Chicago Illinois 60604", Status: StatusPending},
		{Name: "Manvi Koli", TimeWindow: "10am-3pm", Address: "6230 N Kenmore Ave Chicago Illinois 60660", Status: StatusCompleted},
	}
}
